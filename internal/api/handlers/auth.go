package handlers

import (
	"errors"
	"net/http"

	"github.com/placedir/server/internal/api/problem"
	"github.com/placedir/server/internal/domain/users"
)

type AuthHandler struct {
	Users *users.Service
	Env   string
}

func NewAuthHandler(service *users.Service, env string) *AuthHandler {
	return &AuthHandler{Users: service, Env: env}
}

type loginBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var body loginBody
	if err := decodeJSON(r, w, &body); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request body", err, h.Env)
		return
	}

	token, err := h.Users.Login(r.Context(), body.Email, body.Password)
	if err != nil {
		if errors.Is(err, users.ErrInvalidCredentials) {
			problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Invalid email or password", err, h.Env)
			return
		}
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", err, h.Env)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{Token: token})
}
