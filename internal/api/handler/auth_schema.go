package handler

import (
	"net/http"

	"github.com/99minutos/identity-service/internal/core/ports"
)

type registerRequest struct {
	Email    string `json:"email"    validate:"required,email,max=254"`
	Name     string `json:"name"     validate:"required,max=200"`
	Password string `json:"password" validate:"required,maxbytes=72"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// statusFor maps a use-case outcome to its HTTP status code.
func statusFor(o ports.Outcome) int {
	switch o {
	case ports.OutcomeOK:
		return http.StatusOK
	case ports.OutcomeCreated:
		return http.StatusCreated
	case ports.OutcomeConflict:
		return http.StatusConflict
	case ports.OutcomeUnauthorized:
		return http.StatusUnauthorized
	case ports.OutcomeForbidden:
		return http.StatusForbidden
	case ports.OutcomeNotFound:
		return http.StatusNotFound
	case ports.OutcomeInvalid:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
