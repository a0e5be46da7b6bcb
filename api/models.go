package api

// SignupRequest is the JSON body for POST /signup.
type SignupRequest struct {
	Email          string `json:"email"`
	Password       string `json:"password"`
	Requires2FA    bool   `json:"requires2FA"`
	RecaptchaToken string `json:"recaptchaToken,omitempty"`
}

// LoginRequest is the JSON body for POST /login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Verify2FARequest is the JSON body for POST /verify-2fa.
type Verify2FARequest struct {
	Email          string `json:"email"`
	TwoFACode      string `json:"2FACode"`
	LoginAttemptID string `json:"loginAttemptId"`
}

// VerifyTokenRequest is the JSON body for POST /verify-token.
type VerifyTokenRequest struct {
	Token string `json:"token"`
}

// MessageResponse is the generic success body.
type MessageResponse struct {
	Message string `json:"message"`
}

// TwoFactorAuthResponse is returned from POST /login with status 206
// when the account requires a second factor. It carries the login
// attempt ID only, never the code.
type TwoFactorAuthResponse struct {
	Message        string `json:"message"`
	LoginAttemptID string `json:"loginAttemptId"`
}

// ErrorResponse is the generic error body.
type ErrorResponse struct {
	Error string `json:"error"`
}
