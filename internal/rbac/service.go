package rbac

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates that the requested record does not exist.
var ErrNotFound = errors.New("rbac: not found")

// PermissionSource resolves the permissions held by a user.
type PermissionSource interface {
	EffectivePermissions(ctx context.Context, userID int64) ([]string, error)
}

// Service resolves roles stored in Postgres.
type Service struct {
	pool *pgxpool.Pool
}

// NewService constructs a Service backed by the provided pool.
func NewService(pool *pgxpool.Pool) *Service {
	return &Service{pool: pool}
}

// ListRoles returns all roles ordered by id.
func (s *Service) ListRoles(ctx context.Context) ([]RoleRecord, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name FROM roles ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("rbac: list roles: %w", err)
	}
	defer rows.Close()
	var roles []RoleRecord
	for rows.Next() {
		var (
			rec  RoleRecord
			name string
		)
		if err := rows.Scan(&rec.ID, &name); err != nil {
			return nil, err
		}
		role, err := ParseRole(name)
		if err != nil {
			continue
		}
		rec.Name = role
		roles = append(roles, rec)
	}
	return roles, rows.Err()
}

// RoleOf returns the role of an active user.
func (s *Service) RoleOf(ctx context.Context, userID int64) (Role, error) {
	var name string
	err := s.pool.QueryRow(ctx, `SELECT r.name FROM users u JOIN roles r ON r.id = u.role_id WHERE u.id = $1 AND u.deleted_at IS NULL`, userID).Scan(&name)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("rbac: role of user: %w", err)
	}
	return ParseRole(name)
}

// EffectivePermissions returns the capability set of the user's role. A
// missing or trashed user holds no permissions.
func (s *Service) EffectivePermissions(ctx context.Context, userID int64) ([]string, error) {
	role, err := s.RoleOf(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return Capabilities(role), nil
}
