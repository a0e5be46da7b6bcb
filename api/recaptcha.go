package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// RecaptchaVerifier checks a client-supplied reCAPTCHA token before an
// account is created. Verify reports whether the token passed.
type RecaptchaVerifier interface {
	Verify(ctx context.Context, token string) bool
}

const recaptchaVerifyURL = "https://www.google.com/recaptcha/api/siteverify"

// GoogleRecaptcha verifies tokens against Google's siteverify endpoint.
type GoogleRecaptcha struct {
	secret string
	client *http.Client
}

// NewGoogleRecaptcha returns a verifier using the given site secret.
func NewGoogleRecaptcha(secret string) *GoogleRecaptcha {
	return &GoogleRecaptcha{
		secret: secret,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Verify posts the token to Google and reports the verdict. Network or
// decode failures count as a failed verification.
func (g *GoogleRecaptcha) Verify(ctx context.Context, token string) bool {
	if token == "" {
		return false
	}

	form := url.Values{
		"secret":   {g.secret},
		"response": {token},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, recaptchaVerifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return false
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	var verdict struct {
		Success bool `json:"success"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&verdict); err != nil {
		return false
	}
	return verdict.Success
}
