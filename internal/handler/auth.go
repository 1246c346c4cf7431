package handler

import (
	"errors"
	"net/http"

	"github.com/atelierhq/atelier/internal/config"
	"github.com/atelierhq/atelier/internal/server/middleware"
	"github.com/atelierhq/atelier/internal/service"
)

// AuthHandler serves registration, login, logout and token verification for
// the single admin account.
type AuthHandler struct {
	store        *config.Store
	auth         *service.AuthService
	cookieSecure bool
}

func NewAuthHandler(store *config.Store, auth *service.AuthService, cookieSecure bool) *AuthHandler {
	return &AuthHandler{store: store, auth: auth, cookieSecure: cookieSecure}
}

// RegistrationStatus reports whether first-run registration is still open.
// It is advisory only; Register is what actually decides.
func (h *AuthHandler) RegistrationStatus(w http.ResponseWriter, r *http.Request) {
	exists, err := h.store.AdminExists(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Service unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"adminExists":         exists,
		"registrationAllowed": !exists,
	})
}

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

// Register creates the singleton admin account and signs the caller in.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Username == "" || req.Password == "" || req.Email == "" {
		writeError(w, http.StatusBadRequest, "username, password and email are required")
		return
	}
	if len(req.Password) < 8 {
		writeError(w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	admin, err := h.auth.Register(r.Context(), req.Username, req.Password, req.Email)
	if errors.Is(err, config.ErrAdminExists) {
		writeError(w, http.StatusConflict, "Admin account already exists")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Registration failed")
		return
	}

	token, err := h.auth.IssueToken(admin, service.TokenTTL)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Registration failed")
		return
	}
	h.setSessionCookie(w, token)
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Admin account created",
		"token":   token,
		"admin":   admin.Public(),
	})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login checks credentials and issues a 24 hour session token. Unknown
// username and wrong password produce the identical response.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	admin, err := h.auth.Authenticate(r.Context(), req.Username, req.Password)
	if errors.Is(err, service.ErrInvalidCredentials) {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Login failed")
		return
	}

	token, err := h.auth.IssueToken(admin, service.TokenTTL)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Login failed")
		return
	}
	h.setSessionCookie(w, token)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Logged in",
		"token":   token,
		"admin":   admin.Public(),
	})
}

// Logout clears the session cookie. Issued tokens stay valid until expiry;
// there is no server-side revocation list.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.clearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Logged out",
	})
}

// Verify confirms the caller's token. The guard has already validated it, so
// this just reflects the claims back.
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"valid": true,
		"admin": map[string]interface{}{
			"id":       claims.AdminID,
			"username": claims.Username,
			"role":     claims.Role,
		},
	})
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.TokenCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(service.TokenTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *AuthHandler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.TokenCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
}
