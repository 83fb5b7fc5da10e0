package shared

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	internalShared "github.com/odyssey-pos/odyssey-pos/internal/shared"
	"github.com/odyssey-pos/odyssey-pos/internal/view"
)

// TrashService is the lifecycle surface TrashActions drives.
type TrashService interface {
	Delete(ctx context.Context, id int64) error
	Restore(ctx context.Context, id int64) error
	ForceDelete(ctx context.Context, id int64) error
}

// TrashActions serves the delete, restore and force-delete POST endpoints of
// one catalog entity. Noun is used in flash messages, e.g. "Brand".
type TrashActions struct {
	Responder view.Responder
	Service   TrashService
	BasePath  string
	Noun      string
}

// Delete soft-deletes {id} and redirects to the list.
func (a TrashActions) Delete(w http.ResponseWriter, r *http.Request) {
	a.run(w, r, a.Service.Delete, a.BasePath, "moved to trash")
}

// Restore restores {id} and redirects to the trash list.
func (a TrashActions) Restore(w http.ResponseWriter, r *http.Request) {
	a.run(w, r, a.Service.Restore, a.BasePath+"/trashed", "restored")
}

// ForceDelete purges {id} and redirects to the trash list.
func (a TrashActions) ForceDelete(w http.ResponseWriter, r *http.Request) {
	a.run(w, r, a.Service.ForceDelete, a.BasePath+"/trashed", "permanently deleted")
}

func (a TrashActions) run(w http.ResponseWriter, r *http.Request, op func(context.Context, int64) error, back, verb string) {
	id, err := ParseID(r)
	if err != nil {
		http.Error(w, "Invalid ID", http.StatusBadRequest)
		return
	}
	if err := op(r.Context(), id); err != nil {
		if a.Responder.Logger != nil && !errors.Is(err, ErrNotFound) {
			a.Responder.Logger.Error("catalog lifecycle", slog.String("entity", a.Noun), slog.Int64("id", id), slog.Any("error", err))
		}
		a.Responder.RedirectWithFlash(w, r, back, "error", LifecycleMessage(a.Noun, err))
		return
	}
	a.Responder.RedirectWithFlash(w, r, back, "success", a.Noun+" "+verb)
}

// LifecycleMessage turns lifecycle errors into operator-facing text.
func LifecycleMessage(noun string, err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return noun + " not found"
	case errors.Is(err, ErrInUse):
		return noun + " is still referenced and cannot be permanently deleted"
	case errors.Is(err, ErrDuplicate):
		return "An active " + noun + " with the same name already exists"
	}
	return internalShared.UserSafeMessage(err)
}

// ParseID reads the {id} URL parameter.
func ParseID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidID
	}
	return id, nil
}

// ParseOptionalID parses a form value holding an id; empty yields 0.
func ParseOptionalID(raw string) int64 {
	id, _ := strconv.ParseInt(raw, 10, 64)
	return id
}
