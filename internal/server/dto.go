package server

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/terraconstructs/geoform/internal/db/models"
	"github.com/terraconstructs/geoform/internal/validate"
)

// Credentials is the body of sign-in and sign-up requests.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (c Credentials) Rules() []validate.FieldRules {
	return []validate.FieldRules{
		validate.Field("username", c.Username,
			validation.Required.Error("username is required"),
			is.Email.Error("email is invalid"),
		),
		validate.Field("password", c.Password,
			validation.Required.Error("password is required"),
			validation.Length(6, 0).Error("password must be at least 6 characters"),
		),
	}
}

// UsernameQuery is the query string of GET /api/users.
type UsernameQuery struct {
	Username string `json:"username"`
}

func (q UsernameQuery) Rules() []validate.FieldRules {
	return []validate.FieldRules{
		validate.Field("username", q.Username,
			validation.Required.Error("username is required"),
			is.Email.Error("email is invalid"),
		),
	}
}

// AccountPath carries the {id} route parameter.
type AccountPath struct {
	ID string `json:"id"`
}

func (p AccountPath) Rules() []validate.FieldRules {
	return []validate.FieldRules{
		validate.Field("id", p.ID,
			validation.Required.Error("id is required"),
			is.UUID.Error("id must be a UUID"),
		),
	}
}

// AccountResponse is the public view of an account.
type AccountResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

func newAccountResponse(a *models.UserAccount) AccountResponse {
	return AccountResponse{ID: a.ID, Username: a.Username, CreatedAt: a.CreatedAt}
}

// CreatedResponse is returned by sign-up.
type CreatedResponse struct {
	ID string `json:"id"`
}
