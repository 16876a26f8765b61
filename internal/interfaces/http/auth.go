package http

import (
	"errors"
	"log"
	"net/http"

	"marketplace/internal/domain/user"
	"marketplace/internal/domain/validation"
	"marketplace/internal/shared/auth"
	"marketplace/internal/shared/middleware"
)

type AuthHandler struct {
	users user.Repository
	jwt   *auth.JWT
}

func NewAuthHandler(users user.Repository, jwt *auth.JWT) *AuthHandler {
	return &AuthHandler{users: users, jwt: jwt}
}

func (h *AuthHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/authentication/login", h.HandleLogin)
	mux.HandleFunc("POST /api/authentication/logout", h.HandleLogout)
	mux.Handle("GET /api/authentication/me", middleware.RequireAuth(http.HandlerFunc(h.HandleMe)))
}

type LoginRequest struct {
	UserName *string `json:"userName"`
	Password *string `json:"password"`
}

func (req LoginRequest) validate() error {
	c := validation.NewChecker(validation.KindCredentials)
	c.RequiredString("userName", req.UserName)
	c.RequiredString("password", req.Password)
	return c.Result().Err()
}

type AuthResponse struct {
	Token string     `json:"token"`
	User  *user.User `json:"user"`
}

// HandleLogin authenticates a user with user name and password
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, r, err)
		return
	}

	ctx := r.Context()

	u, err := h.users.GetByUserName(ctx, *req.UserName)
	switch {
	case errors.Is(err, user.ErrUserNotFound):
		err = auth.RejectUnknownUser(*req.Password)
	case err == nil:
		err = auth.VerifyPassword(u.PasswordHash, *req.Password)
	}
	if errors.Is(err, auth.ErrInvalidCredentials) {
		writeJSON(w, http.StatusUnauthorized, messageResponse{Error: "Invalid user name or password"})
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	// Generate JWT
	token, err := h.jwt.Generate(u.ID, u.UserName, u.Roles)
	if err != nil {
		log.Printf("Error generating JWT for user %d: %v", u.ID, err)
		writeError(w, r, err)
		return
	}

	setAuthCookie(w, r, token, int(h.jwt.TTL().Seconds()))
	writeJSON(w, http.StatusOK, AuthResponse{Token: token, User: u})
}

// HandleLogout clears the auth cookie
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	// Clear the cookie by setting MaxAge to -1
	setAuthCookie(w, r, "", -1)
	w.WriteHeader(http.StatusNoContent)
}

// HandleMe returns the signed-in user.
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	caller := middleware.CallerFromContext(r.Context())

	u, err := h.users.GetByID(r.Context(), caller.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// setAuthCookie sets the JWT as an HttpOnly cookie
func setAuthCookie(w http.ResponseWriter, r *http.Request, token string, maxAge int) {
	// Only set Secure flag when actually using HTTPS
	secure := r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https"

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	})
}
