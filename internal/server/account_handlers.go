package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/terraconstructs/geoform/internal/apierror"
	"github.com/terraconstructs/geoform/internal/auth"
	"github.com/terraconstructs/geoform/internal/db/models"
	"github.com/terraconstructs/geoform/internal/extract"
	"github.com/terraconstructs/geoform/internal/repository"
	"github.com/terraconstructs/geoform/internal/services/account"
)

// AccountService defines the account operations needed by the HTTP handlers.
type AccountService interface {
	SignUp(ctx context.Context, username, password string) (*models.UserAccount, error)
	SignIn(ctx context.Context, username, password string) (*account.TokenResponse, error)
	Get(ctx context.Context, id string) (*models.UserAccount, error)
	GetByUsername(ctx context.Context, username string) (*models.UserAccount, error)
}

// AccountHandlers wires the sign-in, sign-up and account lookup endpoints.
type AccountHandlers struct {
	service   AccountService
	responder *apierror.Responder
	log       logrus.FieldLogger
}

// NewAccountHandlers creates the account handler set.
func NewAccountHandlers(service AccountService, responder *apierror.Responder, log logrus.FieldLogger) *AccountHandlers {
	return &AccountHandlers{service: service, responder: responder, log: log}
}

// SignIn handles POST /api/auth/sign-in.
func (h *AccountHandlers) SignIn(w http.ResponseWriter, r *http.Request) {
	creds, err := extract.Body[Credentials](r)
	if err != nil {
		h.responder.Write(w, r, err)
		return
	}

	token, err := h.service.SignIn(r.Context(), creds.Username, creds.Password)
	if err != nil {
		if errors.Is(err, account.ErrInvalidCredentials) {
			h.responder.Write(w, r, apierror.Unauthorized().WithCause(err))
			return
		}
		h.responder.Write(w, r, err)
		return
	}

	writeData(w, h.log, http.StatusOK, token)
}

// SignUp handles POST /api/users.
func (h *AccountHandlers) SignUp(w http.ResponseWriter, r *http.Request) {
	creds, err := extract.Body[Credentials](r)
	if err != nil {
		h.responder.Write(w, r, err)
		return
	}

	created, err := h.service.SignUp(r.Context(), creds.Username, creds.Password)
	if err != nil {
		if errors.Is(err, repository.ErrUsernameTaken) {
			h.responder.Write(w, r, apierror.Conflict(MsgUsernameTaken).WithCause(err))
			return
		}
		h.responder.Write(w, r, err)
		return
	}

	h.log.WithField("account_id", created.ID).Info("account created")
	writeData(w, h.log, http.StatusCreated, CreatedResponse{ID: created.ID})
}

// Me handles GET /api/users/me for the authenticated account.
func (h *AccountHandlers) Me(w http.ResponseWriter, r *http.Request) {
	current, ok := auth.AccountFromContext(r.Context())
	if !ok {
		h.responder.Write(w, r, apierror.Unauthorized())
		return
	}
	writeData(w, h.log, http.StatusOK, newAccountResponse(current))
}

// FindByUsername handles GET /api/users?username=.
func (h *AccountHandlers) FindByUsername(w http.ResponseWriter, r *http.Request) {
	q, err := extract.Query[UsernameQuery](r)
	if err != nil {
		h.responder.Write(w, r, err)
		return
	}
	found, err := h.service.GetByUsername(r.Context(), q.Username)
	h.writeAccount(w, r, found, err)
}

// Get handles GET /api/users/{id}.
func (h *AccountHandlers) Get(w http.ResponseWriter, r *http.Request) {
	p, err := extract.Path[AccountPath](r)
	if err != nil {
		h.responder.Write(w, r, err)
		return
	}
	found, err := h.service.Get(r.Context(), p.ID)
	h.writeAccount(w, r, found, err)
}

func (h *AccountHandlers) writeAccount(w http.ResponseWriter, r *http.Request, a *models.UserAccount, err error) {
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			h.responder.Write(w, r, apierror.NotFound(MsgAccountNotFound).WithCause(err))
			return
		}
		h.responder.Write(w, r, err)
		return
	}
	writeData(w, h.log, http.StatusOK, newAccountResponse(a))
}
