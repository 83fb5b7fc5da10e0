package suppliers

import (
	"time"
)

// Supplier represents a supplier entity
type Supplier struct {
	ID            int64      `json:"id" form:"-"`
	Name          string     `json:"name" form:"name" validate:"required,max=160"`
	Email         string     `json:"email" form:"email" validate:"omitempty,email"`
	ContactNumber string     `json:"contact_number" form:"contact_number" validate:"max=40"`
	Address       string     `json:"address" form:"address" validate:"max=500"`
	CreatedAt     time.Time  `json:"created_at" form:"-"`
	UpdatedAt     time.Time  `json:"updated_at" form:"-"`
	DeletedAt     *time.Time `json:"deleted_at,omitempty" form:"-"`
}
