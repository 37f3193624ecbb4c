// Auth HTTP handlers.
//
// This file exposes the account endpoints:
//   - POST /auth/register  (create account, returns a token)
//   - POST /auth/login     (verify credentials, returns a token)
//
// Handlers are transport-thin: they validate input, call the auth service,
// and translate results into HTTP responses. Credential failures are
// reported with a single undifferentiated message so the API does not leak
// which part of the credential pair was wrong.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mindmate-labs/go-mindmate-backend/internal/services"
)

//
// Service contracts (context-aware)
//

// AuthService defines the account operations consumed by HTTP handlers.
// Implementations must be safe for concurrent use and honor the provided
// context.
type AuthService interface {
	// Register creates an account and issues a token for it.
	Register(ctx context.Context, name, email, password string) (*services.AuthResult, error)
	// Login verifies credentials and issues a fresh token.
	Login(ctx context.Context, email, password string) (*services.AuthResult, error)
}

//
// DTOs
//

// RegisterRequest is the JSON payload for creating an account.
type RegisterRequest struct {
	// Name is the display name shown back to the user.
	Name string `json:"name" binding:"required,min=1,max=120" example:"Maya"`
	// Email doubles as the login identifier and must be unique.
	Email string `json:"email" binding:"required,email" example:"maya@example.com"`
	// Password is hashed before storage and never logged.
	Password string `json:"password" binding:"required,min=6" example:"s3cret-pass"`
}

// RegisterResponse confirms the new account and carries its first token.
type RegisterResponse struct {
	Message string `json:"message" example:"User registered successfully"`
	Token   string `json:"token"`
}

// LoginRequest is the JSON payload for logging in.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email" example:"maya@example.com"`
	Password string `json:"password" binding:"required" example:"s3cret-pass"`
}

// LoginUser is the account summary embedded in a login response.
type LoginUser struct {
	ID       string `json:"_id"`
	Username string `json:"username"`
}

// LoginResponse carries the bearer token and the account it belongs to.
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	User        LoginUser `json:"user"`
}

//
// Handlers
//

// Register godoc
// @ID          register
// @Summary     Create an account
// @Description Registers a new account and returns a bearer token for it.
// @Tags        Auth
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.RegisterRequest  true  "Account details"
//
// @Success     200  {object}  handlers.RegisterResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid payload or email already registered"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /auth/register [post]
func (h *Handlers) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "name, email and password required")
		return
	}

	res, err := h.authSvc.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		switch err {
		case services.ErrEmailTaken:
			fail(c, http.StatusBadRequest, ErrCodeConflict, "Email already registered")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeRegisterFailed, err.Error())
		}
		return
	}

	ok(c, http.StatusOK, RegisterResponse{
		Message: "User registered successfully",
		Token:   res.Token,
	})
}

// Login godoc
// @ID          login
// @Summary     Log in
// @Description Verifies credentials and returns a bearer token plus the
// @Description account summary. Unknown email and wrong password produce
// @Description the same error.
// @Tags        Auth
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.LoginRequest  true  "Credentials"
//
// @Success     200  {object}  handlers.LoginResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid email or password"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /auth/login [post]
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "email and password required")
		return
	}

	res, err := h.authSvc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch err {
		case services.ErrInvalidCredentials:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "Invalid email or password")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}

	ok(c, http.StatusOK, LoginResponse{
		AccessToken: res.Token,
		User:        LoginUser{ID: res.User.ID, Username: res.User.Name},
	})
}
