package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/odyssey-pos/odyssey-pos/internal/shared"
)

const maxUserAgent = 512

// decoyHash is compared against when the email is unknown so the response
// time does not reveal which accounts exist.
var decoyHash = sync.OnceValue(func() []byte {
	hash, err := bcrypt.GenerateFromPassword([]byte("odyssey-pos-decoy"), bcrypt.DefaultCost)
	if err != nil {
		panic(err)
	}
	return hash
})

// Service checks operator credentials and keeps the login session ledger.
type Service struct {
	repo   Repository
	logger *slog.Logger
	cost   int
	now    func() time.Time
}

// NewService constructs the auth service. Hashes below bcrypt.DefaultCost are
// upgraded on the next successful login.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger, cost: bcrypt.DefaultCost, now: time.Now}
}

// WithHashCost overrides the target bcrypt cost.
func (s *Service) WithHashCost(cost int) *Service {
	s.cost = cost
	return s
}

// Authenticate checks email and password. Unknown, trashed and mismatching
// accounts fail with shared.ErrInvalidCredentials; storage failures are
// returned wrapped so they are not mistaken for a bad password.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.repo.FindByEmail(ctx, email)
	switch {
	case errors.Is(err, shared.ErrNotFound):
		_ = bcrypt.CompareHashAndPassword(decoyHash(), []byte(password))
		return nil, shared.ErrInvalidCredentials
	case err != nil:
		return nil, fmt.Errorf("auth: find %s: %w", email, err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	s.upgradeHash(ctx, user, password)
	return user, nil
}

func (s *Service) upgradeHash(ctx context.Context, user *User, password string) {
	cost, err := bcrypt.Cost([]byte(user.PasswordHash))
	if err != nil || cost >= s.cost {
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		s.logger.Warn("rehash password", slog.Any("error", err), slog.Int64("user_id", user.ID))
		return
	}
	if err := s.repo.UpdatePasswordHash(ctx, user.ID, string(hash)); err != nil {
		s.logger.Warn("store rehashed password", slog.Any("error", err), slog.Int64("user_id", user.ID))
		return
	}
	user.PasswordHash = string(hash)
}

// StartSession records a login in the session ledger, expiring after ttl.
func (s *Service) StartSession(ctx context.Context, id string, userID int64, ttl time.Duration, remoteAddr, userAgent string) error {
	if id == "" || userID <= 0 {
		return errors.New("auth: session id and user required")
	}
	return s.repo.CreateSession(ctx, LoginSession{
		ID:        id,
		UserID:    userID,
		ExpiresAt: s.now().Add(ttl).UTC(),
		IP:        clientIP(remoteAddr),
		UserAgent: truncate(userAgent, maxUserAgent),
	})
}

// EndSession removes the ledger entry of a logged out session.
func (s *Service) EndSession(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	return s.repo.DeleteSession(ctx, id)
}

func clientIP(remoteAddr string) string {
	if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
		return host
	}
	return remoteAddr
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
