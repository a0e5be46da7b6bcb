package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gskelton/gatehouse/auth"
	"github.com/gskelton/gatehouse/token"
)

const maxBodySize = 1 << 16

// decodeJSON decodes a size-limited JSON request body. On failure it
// writes a 422 and returns false.
func decodeJSON[T any](w http.ResponseWriter, r *http.Request) (T, bool) {
	var v T
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Malformed request body")
		return v, false
	}
	return v, true
}

// Signup handles POST /signup.
func (a *API) Signup(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[SignupRequest](w, r)
	if !ok {
		return
	}

	if a.recaptcha != nil && !a.recaptcha.Verify(r.Context(), req.RecaptchaToken) {
		writeError(w, http.StatusBadRequest, "Invalid recaptcha")
		return
	}

	if err := a.sessions.Signup(r.Context(), req.Email, req.Password, req.Requires2FA); err != nil {
		a.mapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, MessageResponse{Message: "User created successfully!"})
}

// Login handles POST /login. A 2FA-enabled account gets a 206 with the
// login attempt ID; everyone else gets a session cookie immediately.
func (a *API) Login(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[LoginRequest](w, r)
	if !ok {
		return
	}

	res, err := a.sessions.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		a.mapError(w, r, err)
		return
	}

	if res.TwoFactor {
		writeJSON(w, http.StatusPartialContent, TwoFactorAuthResponse{
			Message:        "2FA required",
			LoginAttemptID: res.LoginAttemptID,
		})
		return
	}

	http.SetCookie(w, token.NewCookie(res.Token))
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Login successful"})
}

// Verify2FA handles POST /verify-2fa.
func (a *API) Verify2FA(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[Verify2FARequest](w, r)
	if !ok {
		return
	}

	tok, err := a.sessions.Verify2FA(r.Context(), req.Email, req.LoginAttemptID, req.TwoFACode)
	if err != nil {
		a.mapError(w, r, err)
		return
	}

	http.SetCookie(w, token.NewCookie(tok))
	writeJSON(w, http.StatusOK, MessageResponse{Message: "2FA verified"})
}

// Logout handles POST /logout. The token comes from the session cookie;
// a missing cookie is a client error, an unverifiable one an
// authentication failure.
func (a *API) Logout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(token.CookieName)
	if err != nil || cookie.Value == "" {
		a.mapError(w, r, auth.ErrMissingToken)
		return
	}

	if err := a.sessions.Logout(r.Context(), cookie.Value); err != nil {
		a.mapError(w, r, err)
		return
	}

	http.SetCookie(w, token.ClearedCookie())
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Logout successful"})
}

// VerifyToken handles POST /verify-token, the out-of-band authorization
// check used by downstream services.
func (a *API) VerifyToken(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[VerifyTokenRequest](w, r)
	if !ok {
		return
	}

	if _, err := a.sessions.VerifyToken(r.Context(), req.Token); err != nil {
		a.mapError(w, r, auth.ErrInvalidToken)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Token is valid"})
}

// DeleteUser handles DELETE /users/{email}.
func (a *API) DeleteUser(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")
	if err := a.sessions.DeleteUser(r.Context(), email); err != nil {
		a.mapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "User deleted successfully!"})
}
