package users

import (
	"time"

	"github.com/odyssey-pos/odyssey-pos/internal/rbac"
)

// User is an operator account.
type User struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	RoleID    int64      `json:"role_id"`
	Role      rbac.Role  `json:"role"`
	Image     *string    `json:"image,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// Input is the create/update form. An empty Password on update keeps the
// current hash.
type Input struct {
	Name     string `form:"name" validate:"required,max=120"`
	Email    string `form:"email" validate:"required,email,max=160"`
	Password string `form:"password" validate:"omitempty,min=8,max=72"`
	RoleID   int64  `form:"role_id" validate:"required,gt=0"`
	Image    string `form:"image" validate:"omitempty,max=255"`
}

var inputLabels = map[string]string{
	"name":     "Name",
	"email":    "Email",
	"password": "Password",
	"role_id":  "Role",
	"image":    "Image",
}
