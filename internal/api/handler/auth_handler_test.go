package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/identity-service/internal/core/domain"
	"github.com/99minutos/identity-service/internal/core/ports"
)

type stubAuthService struct {
	registerFn func(ctx context.Context, in ports.RegisterInput) ports.RegisterResult
	loginFn    func(ctx context.Context, in ports.LoginInput) ports.LoginResult
	retrieveFn func(ctx context.Context, in ports.RetrieveUserInput) ports.RetrieveUserResult
}

func (s *stubAuthService) Register(ctx context.Context, in ports.RegisterInput) ports.RegisterResult {
	return s.registerFn(ctx, in)
}

func (s *stubAuthService) Login(ctx context.Context, in ports.LoginInput) ports.LoginResult {
	return s.loginFn(ctx, in)
}

func (s *stubAuthService) RetrieveProtectedUser(ctx context.Context, in ports.RetrieveUserInput) ports.RetrieveUserResult {
	return s.retrieveFn(ctx, in)
}

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	return resp
}

func TestAuthHandler_Register_Created(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, in ports.RegisterInput) ports.RegisterResult {
			if in.Email != "ada@example.com" || in.Name != "Ada" || in.Password != "hunter22" {
				t.Fatalf("unexpected input: %+v", in)
			}
			return ports.RegisterResult{
				Outcome: ports.OutcomeCreated,
				User:    &domain.PublicUser{ID: "u-1", Email: in.Email, Name: in.Name},
			}
		},
	}
	h := NewAuthHandler(stub)

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/users", `{"email":"ada@example.com","name":"Ada","password":"hunter22"}`), rec)

	if err := h.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	resp := decodeBody(t, rec)
	if resp["id"] != "u-1" || resp["email"] != "ada@example.com" || resp["name"] != "Ada" {
		t.Fatalf("unexpected user payload: %+v", resp)
	}
	for _, leaked := range []string{"password", "passwordHash", "password_hash"} {
		if _, ok := resp[leaked]; ok {
			t.Fatalf("response leaks %q: %+v", leaked, resp)
		}
	}
}

func TestAuthHandler_Register_Conflict(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, in ports.RegisterInput) ports.RegisterResult {
			return ports.RegisterResult{Outcome: ports.OutcomeConflict, Message: "E-mail already exists."}
		},
	}
	h := NewAuthHandler(stub)

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/users", `{"email":"ada@example.com","name":"Ada","password":"hunter22"}`), rec)

	if err := h.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	if msg := decodeBody(t, rec)["message"]; msg != "E-mail already exists." {
		t.Fatalf("unexpected message: %v", msg)
	}
}

func TestAuthHandler_Register_ValidationError(t *testing.T) {
	cases := map[string]string{
		"missing name":       `{"email":"ada@example.com","password":"hunter22"}`,
		"bad email":          `{"email":"not-an-email","name":"Ada","password":"hunter22"}`,
		"missing password":   `{"email":"ada@example.com","name":"Ada"}`,
		"long password":      `{"email":"ada@example.com","name":"Ada","password":"` + strings.Repeat("x", 73) + `"}`,
		"multibyte 80 bytes": `{"email":"ada@example.com","name":"Ada","password":"` + strings.Repeat("é", 40) + `"}`,
		"malformed json":     `{"email":`,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			e := newTestEcho()
			stub := &stubAuthService{
				registerFn: func(ctx context.Context, in ports.RegisterInput) ports.RegisterResult {
					t.Fatalf("service should not be called")
					return ports.RegisterResult{}
				},
			}
			h := NewAuthHandler(stub)

			rec := httptest.NewRecorder()
			c := e.NewContext(jsonRequest(http.MethodPost, "/users", body), rec)

			if err := h.Register(c); err != nil {
				t.Fatalf("handler error: %v", err)
			}
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
			if msg, _ := decodeBody(t, rec)["message"].(string); msg == "" {
				t.Fatalf("expected a message")
			}
		})
	}
}

func TestAuthHandler_Register_Internal(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, in ports.RegisterInput) ports.RegisterResult {
			return ports.RegisterResult{Outcome: ports.OutcomeInternal, Message: "Internal server error."}
		},
	}
	h := NewAuthHandler(stub)

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/users", `{"email":"ada@example.com","name":"Ada","password":"hunter22"}`), rec)

	if err := h.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestAuthHandler_Login_Success(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, in ports.LoginInput) ports.LoginResult {
			if in.Email != "ada@example.com" || in.Password != "hunter22" {
				t.Fatalf("unexpected input: %+v", in)
			}
			return ports.LoginResult{Outcome: ports.OutcomeOK, Token: "signed.jwt.token"}
		},
	}
	h := NewAuthHandler(stub)

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/login", `{"email":"ada@example.com","password":"hunter22"}`), rec)

	if err := h.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if token := decodeBody(t, rec)["token"]; token != "signed.jwt.token" {
		t.Fatalf("unexpected token: %v", token)
	}
}

func TestAuthHandler_Login_Unauthorized(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, in ports.LoginInput) ports.LoginResult {
			return ports.LoginResult{Outcome: ports.OutcomeUnauthorized, Message: "Invalid e-mail or password."}
		},
	}
	h := NewAuthHandler(stub)

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/login", `{"email":"ada@example.com","password":"wrong"}`), rec)

	if err := h.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if _, ok := decodeBody(t, rec)["token"]; ok {
		t.Fatalf("token must not be returned on failure")
	}
}

func TestAuthHandler_Login_MissingFields(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, in ports.LoginInput) ports.LoginResult {
			t.Fatalf("service should not be called")
			return ports.LoginResult{}
		},
	}
	h := NewAuthHandler(stub)

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/login", `{"email":"ada@example.com"}`), rec)

	if err := h.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAuthHandler_GetUser_PassesHeaderAndID(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		retrieveFn: func(ctx context.Context, in ports.RetrieveUserInput) ports.RetrieveUserResult {
			if in.AuthorizationHeader != "Bearer abc" || in.UserID != "u-1" {
				t.Fatalf("unexpected input: %+v", in)
			}
			return ports.RetrieveUserResult{
				Outcome: ports.OutcomeOK,
				User:    &domain.PublicUser{ID: "u-1", Email: "ada@example.com", Name: "Ada"},
			}
		},
	}
	h := NewAuthHandler(stub)

	req := httptest.NewRequest(http.MethodGet, "/users/u-1", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer abc")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/users/:id")
	c.SetParamNames("id")
	c.SetParamValues("u-1")

	if err := h.GetUser(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if resp := decodeBody(t, rec); resp["id"] != "u-1" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}

func TestAuthHandler_GetUser_StatusMapping(t *testing.T) {
	cases := []struct {
		outcome ports.Outcome
		status  int
	}{
		{ports.OutcomeUnauthorized, http.StatusUnauthorized},
		{ports.OutcomeForbidden, http.StatusForbidden},
		{ports.OutcomeNotFound, http.StatusNotFound},
		{ports.OutcomeInternal, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.outcome.String(), func(t *testing.T) {
			e := newTestEcho()
			stub := &stubAuthService{
				retrieveFn: func(ctx context.Context, in ports.RetrieveUserInput) ports.RetrieveUserResult {
					return ports.RetrieveUserResult{Outcome: tc.outcome, Message: "nope"}
				},
			}
			h := NewAuthHandler(stub)

			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/users/u-1", nil), rec)
			c.SetParamNames("id")
			c.SetParamValues("u-1")

			if err := h.GetUser(c); err != nil {
				t.Fatalf("handler error: %v", err)
			}
			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, rec.Code)
			}
			if msg := decodeBody(t, rec)["message"]; msg != "nope" {
				t.Fatalf("unexpected message: %v", msg)
			}
			challenge := rec.Header().Get(echo.HeaderWWWAuthenticate)
			if tc.outcome == ports.OutcomeUnauthorized && challenge == "" {
				t.Fatalf("expected WWW-Authenticate challenge on 401")
			}
			if tc.outcome != ports.OutcomeUnauthorized && challenge != "" {
				t.Fatalf("unexpected WWW-Authenticate header: %q", challenge)
			}
		})
	}
}

func TestAuthHandler_Register_PasswordLimitCountsBytes(t *testing.T) {
	e := newTestEcho()
	var got string
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, in ports.RegisterInput) ports.RegisterResult {
			got = in.Password
			return ports.RegisterResult{
				Outcome: ports.OutcomeCreated,
				User:    &domain.PublicUser{ID: "u-1", Email: in.Email, Name: in.Name},
			}
		},
	}
	h := NewAuthHandler(stub)

	password := strings.Repeat("é", 36)
	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/users", `{"email":"ada@example.com","name":"Ada","password":"`+password+`"}`), rec)

	if err := h.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 for a 72-byte password, got %d (%s)", rec.Code, rec.Body.String())
	}
	if got != password {
		t.Fatalf("password not passed through intact")
	}
}

func TestAuthHandler_Register_MultibytePasswordMessage(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, in ports.RegisterInput) ports.RegisterResult {
			t.Fatalf("service should not be called")
			return ports.RegisterResult{}
		},
	}
	h := NewAuthHandler(stub)

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/users", `{"email":"ada@example.com","name":"Ada","password":"`+strings.Repeat("é", 40)+`"}`), rec)

	if err := h.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if msg := decodeBody(t, rec)["message"]; msg != "password must be at most 72 bytes" {
		t.Fatalf("unexpected message: %v", msg)
	}
}
