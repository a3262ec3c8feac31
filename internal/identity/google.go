// Package identity verifies OAuth access tokens against an external provider.
package identity

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"go-inventory-sales/internal/model"
)

// Identity is the profile the provider returns for a valid token.
type Identity struct {
	Subject   string `json:"sub"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	AvatarURL string `json:"picture"`
}

type Verifier interface {
	// Verify returns model.ErrInvalidToken when the provider rejects the token.
	Verify(ctx context.Context, accessToken string) (*Identity, error)
}

// GoogleVerifier resolves access tokens with the Google userinfo endpoint.
type GoogleVerifier struct {
	client  *resty.Client
	userURL string
}

func NewGoogleVerifier(userInfoURL string) *GoogleVerifier {
	client := resty.New().
		SetTimeout(10*time.Second).
		SetHeader("Accept", "application/json")

	return &GoogleVerifier{client: client, userURL: userInfoURL}
}

func (v *GoogleVerifier) Verify(ctx context.Context, accessToken string) (*Identity, error) {
	if accessToken == "" {
		return nil, model.ErrInvalidToken
	}

	var id Identity
	resp, err := v.client.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetResult(&id).
		Get(v.userURL)
	if err != nil {
		return nil, fmt.Errorf("google userinfo request: %w", err)
	}

	switch resp.StatusCode() {
	case http.StatusOK:
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden:
		return nil, model.ErrInvalidToken
	default:
		return nil, fmt.Errorf("google userinfo returned status %d", resp.StatusCode())
	}

	if id.Email == "" || id.Subject == "" {
		return nil, model.ErrInvalidToken
	}
	return &id, nil
}
