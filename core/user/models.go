package user

import (
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/mahudhurio/core"
)

// Profile is the signed-in account as returned by the auth endpoints and kept in the credential store.
type Profile struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
	FullName string `json:"fullName,omitempty"`
	Email    string `json:"email,omitempty"`
}

// DisplayName returns FullName when known, else Username.
func (p Profile) DisplayName() string {
	if p.FullName != "" {
		return p.FullName
	}
	return p.Username
}

func (p Profile) IsAdmin() bool   { return p.Role == RoleAdmin }
func (p Profile) IsTeacher() bool { return p.Role == RoleTeacher }
func (p Profile) IsStudent() bool { return p.Role == RoleStudent }

// Credentials are posted to the login endpoint.
type Credentials struct {
	Username string `json:"username" validate:"required,notblank"`
	Password string `json:"password" validate:"required"`
}

func (c *Credentials) Validate(validate *validator.Validate) error {
	c.Username = core.CleanString(c.Username)
	return validate.Struct(c)
}

// NewUser contains information needed to register a new account.
type NewUser struct {
	Username    string `json:"username" validate:"required,notblank"`
	Email       string `json:"email" validate:"required,email"`
	FullName    string `json:"fullName" validate:"required,notblank"`
	Password    string `json:"password" validate:"required"`
	Role        Role   `json:"role" validate:"required,role"`
	ReferenceID *int64 `json:"referenceId,omitempty"`
}

func (nu *NewUser) Validate(validate *validator.Validate) error {
	nu.Username = core.CleanString(nu.Username)
	nu.Email = core.CleanString(nu.Email)
	nu.FullName = core.CleanString(nu.FullName)
	return validate.Struct(nu)
}
