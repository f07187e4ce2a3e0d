package handler

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	crm "github.com/pgalanos/crm-api"
	"github.com/pgalanos/crm-api/auth"
	"go.uber.org/zap"
)

type AuthHandler struct {
	users    crm.UserService
	tokens   *auth.Authenticator
	log      *zap.SugaredLogger
	validate *validator.Validate
}

func NewAuthHandler(users crm.UserService, tokens *auth.Authenticator, log *zap.SugaredLogger) *AuthHandler {
	return &AuthHandler{
		users:    users,
		tokens:   tokens,
		log:      log,
		validate: validator.New(),
	}
}

type registerRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (ah AuthHandler) Register(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req registerRequest
	if err := decode(r, &req); err != nil {
		ah.log.Errorw("Register", "error", err.Error())
		respondErr(ctx, rw, http.StatusBadRequest, err)
		return
	}

	if err := ah.validate.Struct(req); err != nil {
		respondErr(ctx, rw, http.StatusBadRequest, validationError(err))
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		ah.log.Errorw("Register", "error", err.Error())
		respondErr(ctx, rw, http.StatusInternalServerError, errors.New("Server error"))
		return
	}

	user, err := ah.users.Create(ctx, crm.NewUser{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
	})
	if err != nil {
		ah.log.Errorw("Register", "error", err.Error())
		switch err {
		case crm.ErrEmailTaken:
			respondErr(ctx, rw, http.StatusBadRequest, errors.New("Email already in use"))
		default:
			respondErr(ctx, rw, http.StatusInternalServerError, errors.New("Server error"))
		}
		return
	}

	respond(ctx, rw, http.StatusCreated, map[string]interface{}{
		"message": "User registered successfully",
		"user":    user,
	})
}

func (ah AuthHandler) Login(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req loginRequest
	if err := decode(r, &req); err != nil {
		ah.log.Errorw("Login", "error", err.Error())
		respondErr(ctx, rw, http.StatusBadRequest, err)
		return
	}

	if err := ah.validate.Struct(req); err != nil {
		respondErr(ctx, rw, http.StatusBadRequest, validationError(err))
		return
	}

	user, err := ah.users.GetByEmail(ctx, req.Email)
	if err != nil {
		switch err {
		case crm.ErrUserNotFound:
			// Same answer as a bad password: no account probing.
			respondErr(ctx, rw, http.StatusUnauthorized, crm.ErrInvalidCredentials)
		default:
			ah.log.Errorw("Login", "error", err.Error())
			respondErr(ctx, rw, http.StatusInternalServerError, errors.New("Server error"))
		}
		return
	}

	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		respondErr(ctx, rw, http.StatusUnauthorized, crm.ErrInvalidCredentials)
		return
	}

	token, err := ah.tokens.Issue(user.ID)
	if err != nil {
		ah.log.Errorw("Login", "error", err.Error())
		respondErr(ctx, rw, http.StatusInternalServerError, errors.New("Server error"))
		return
	}

	respond(ctx, rw, http.StatusOK, map[string]interface{}{
		"token": token,
		"user":  user,
	})
}
