package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/odyssey-pos/odyssey-pos/internal/masterdata/shared"
	internalShared "github.com/odyssey-pos/odyssey-pos/internal/shared"
)

// ErrSelfDelete is returned when an operator tries to trash their own account.
var ErrSelfDelete error = &internalShared.PublicError{Msg: "You cannot delete your own account"}

// Service implements account management.
type Service struct {
	shared.Trash
	repo Repository
	cost int
}

// NewService builds the account service. Account changes bump the dashboard
// user count through invalidator.
func NewService(repo Repository, invalidator shared.Invalidator, logger *slog.Logger) *Service {
	return &Service{
		Trash: shared.Trash{Repo: repo, Invalidator: invalidator, Logger: logger},
		repo:  repo,
		cost:  bcrypt.DefaultCost,
	}
}

// WithHashCost overrides the bcrypt cost, mainly so tests stay fast.
func (s *Service) WithHashCost(cost int) *Service {
	s.cost = cost
	return s
}

func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]User, int, error) {
	filters.Trashed = false
	return s.repo.List(ctx, filters)
}

func (s *Service) ListTrashed(ctx context.Context, filters shared.ListFilters) ([]User, int, error) {
	filters.Trashed = true
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (User, error) {
	if id <= 0 {
		return User{}, shared.ErrInvalidID
	}
	return s.repo.Get(ctx, id)
}

// Create validates in, hashes the password and stores the account.
func (s *Service) Create(ctx context.Context, in Input) (User, error) {
	in = normalize(in)
	ve := shared.NewValidationError()
	if in.Password == "" {
		ve.Add("password", "Password is required")
	}
	if err := s.validate(ctx, ve, in); err != nil {
		return User{}, err
	}
	hash, err := s.hash(in.Password)
	if err != nil {
		return User{}, err
	}
	created, err := s.repo.Create(ctx, toUser(in), hash)
	if err != nil {
		return User{}, duplicateAsField(err)
	}
	s.Changed(ctx)
	return created, nil
}

// Update changes the account; the password is replaced only when given.
func (s *Service) Update(ctx context.Context, id int64, in Input) error {
	if id <= 0 {
		return shared.ErrInvalidID
	}
	in = normalize(in)
	if err := s.validate(ctx, shared.NewValidationError(), in); err != nil {
		return err
	}
	hash := ""
	if in.Password != "" {
		var err error
		if hash, err = s.hash(in.Password); err != nil {
			return err
		}
	}
	if err := s.repo.Update(ctx, id, toUser(in), hash); err != nil {
		return duplicateAsField(err)
	}
	s.Changed(ctx)
	return nil
}

// Delete trashes an account other than the signed-in one.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if current, ok := internalShared.CurrentUserID(ctx); ok && current == id {
		return ErrSelfDelete
	}
	return s.Trash.Delete(ctx, id)
}

func (s *Service) hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("users: hash password: %w", err)
	}
	return string(b), nil
}

func (s *Service) validate(ctx context.Context, ve *shared.ValidationError, in Input) error {
	shared.ValidateStruct(ve, in, inputLabels)
	if _, failed := ve.Fields()["role_id"]; !failed && in.RoleID > 0 {
		ok, err := s.repo.RoleExists(ctx, in.RoleID)
		if err != nil {
			return err
		}
		if !ok {
			ve.Add("role_id", "Selected role does not exist")
		}
	}
	return ve.Err()
}

func normalize(in Input) Input {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Image = strings.TrimSpace(in.Image)
	return in
}

func toUser(in Input) User {
	u := User{Name: in.Name, Email: in.Email, RoleID: in.RoleID}
	if in.Image != "" {
		img := in.Image
		u.Image = &img
	}
	return u
}

func duplicateAsField(err error) error {
	if errors.Is(err, shared.ErrDuplicate) {
		ve := shared.NewValidationError()
		ve.Add("email", "An account with this email already exists")
		return ve
	}
	return err
}
