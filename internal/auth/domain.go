package auth

import "time"

// User is the credential record behind a login.
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// LoginSession is one row of the login ledger.
type LoginSession struct {
	ID        string
	UserID    int64
	ExpiresAt time.Time
	IP        string
	UserAgent string
}
