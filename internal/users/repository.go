package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-pos/odyssey-pos/internal/masterdata/shared"
	"github.com/odyssey-pos/odyssey-pos/internal/platform/db"
	"github.com/odyssey-pos/odyssey-pos/internal/rbac"
)

// Repository persists operator accounts.
type Repository interface {
	shared.TrashRepository
	List(ctx context.Context, filters shared.ListFilters) ([]User, int, error)
	Get(ctx context.Context, id int64) (User, error)
	Create(ctx context.Context, u User, passwordHash string) (User, error)
	Update(ctx context.Context, id int64, u User, passwordHash string) error
	RoleExists(ctx context.Context, roleID int64) (bool, error)
}

type repository struct {
	shared.Lifecycle
	pool *pgxpool.Pool
}

// NewRepository constructs the Postgres repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{Lifecycle: shared.NewLifecycle(pool, "users"), pool: pool}
}

const selectUser = `SELECT u.id, u.name, u.email, u.role_id, r.name, u.image, u.created_at, u.updated_at, u.deleted_at
FROM users u JOIN roles r ON r.id = u.role_id`

var sortColumns = map[string]string{"name": "u.name", "email": "u.email", "created": "u.created_at"}

func (r *repository) List(ctx context.Context, filters shared.ListFilters) ([]User, int, error) {
	where := shared.NewClause(filters, "u.", "u.name", "u.email")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users u`+where.SQL(), where.Args()...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("users: count: %w", err)
	}

	page, args := where.Page(filters)
	rows, err := r.pool.Query(ctx, selectUser+where.SQL()+shared.OrderBy(sortColumns, filters.SortBy, filters.SortDir, "u.name")+page, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("users: list: %w", err)
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, u)
	}
	return out, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, selectUser+` WHERE u.id = $1 AND u.deleted_at IS NULL`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, shared.ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("users: get: %w", err)
	}
	return u, nil
}

func (r *repository) Create(ctx context.Context, u User, passwordHash string) (User, error) {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO users (name, email, password_hash, role_id, image) VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at, updated_at`,
		u.Name, u.Email, passwordHash, u.RoleID, u.Image,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return User{}, shared.ErrDuplicate
		}
		return User{}, fmt.Errorf("users: create: %w", err)
	}
	return u, nil
}

func (r *repository) Update(ctx context.Context, id int64, u User, passwordHash string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET name = $2, email = $3, role_id = $4, image = $5,
		password_hash = COALESCE(NULLIF($6, ''), password_hash), updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`,
		id, u.Name, u.Email, u.RoleID, u.Image, passwordHash)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return shared.ErrDuplicate
		}
		return fmt.Errorf("users: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) RoleExists(ctx context.Context, roleID int64) (bool, error) {
	var ok bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM roles WHERE id = $1)`, roleID).Scan(&ok); err != nil {
		return false, fmt.Errorf("users: role exists: %w", err)
	}
	return ok, nil
}

func scanUser(row pgx.Row) (User, error) {
	var (
		u    User
		role string
	)
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.RoleID, &role, &u.Image, &u.CreatedAt, &u.UpdatedAt, &u.DeletedAt); err != nil {
		return User{}, err
	}
	u.Role, _ = rbac.ParseRole(role)
	return u, nil
}
