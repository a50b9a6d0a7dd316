package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/identity-service/internal/core/domain"
	"github.com/99minutos/identity-service/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Register creates a new user account.
//
// @Summary      Register a new user
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "User registration details"
// @Success      201   {object}  userResponse
// @Failure      400   {object}  messageResponse
// @Failure      409   {object}  messageResponse
// @Failure      500   {object}  messageResponse
// @Router       /users [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, messageResponse{Message: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, messageResponse{Message: err.Error()})
	}

	res := h.authService.Register(c.Request().Context(), ports.RegisterInput{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
	})
	if res.Outcome == ports.OutcomeCreated {
		return c.JSON(http.StatusCreated, toUserResponse(res.User))
	}
	return c.JSON(statusFor(res.Outcome), messageResponse{Message: res.Message})
}

// Login authenticates a user and returns a bearer token.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  tokenResponse
// @Failure      400   {object}  messageResponse
// @Failure      401   {object}  messageResponse
// @Router       /login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, messageResponse{Message: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, messageResponse{Message: err.Error()})
	}

	res := h.authService.Login(c.Request().Context(), ports.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if res.Outcome == ports.OutcomeOK {
		return c.JSON(http.StatusOK, tokenResponse{Token: res.Token})
	}
	return c.JSON(statusFor(res.Outcome), messageResponse{Message: res.Message})
}

// GetUser returns a user to a caller holding a valid bearer token.
//
// @Summary      Retrieve a user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User ID"
// @Success      200  {object}  userResponse
// @Failure      401  {object}  messageResponse
// @Failure      403  {object}  messageResponse
// @Failure      404  {object}  messageResponse
// @Router       /users/{id} [get]
func (h *AuthHandler) GetUser(c echo.Context) error {
	res := h.authService.RetrieveProtectedUser(c.Request().Context(), ports.RetrieveUserInput{
		AuthorizationHeader: c.Request().Header.Get(echo.HeaderAuthorization),
		UserID:              c.Param("id"),
	})

	switch res.Outcome {
	case ports.OutcomeOK:
		return c.JSON(http.StatusOK, toUserResponse(res.User))
	case ports.OutcomeUnauthorized:
		c.Response().Header().Set(echo.HeaderWWWAuthenticate, `Bearer realm="identity"`)
	}
	return c.JSON(statusFor(res.Outcome), messageResponse{Message: res.Message})
}

func toUserResponse(u *domain.PublicUser) userResponse {
	return userResponse{ID: u.ID, Email: u.Email, Name: u.Name}
}
