package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// GoogleProvider delegates credential verification to Google OAuth and
// returns a verified identity. The handshake itself is entirely
// Google's; this adapter only exchanges the callback code and reads
// the profile.
type GoogleProvider struct {
	config *oauth2.Config
}

// NewGoogleProvider constructs the adapter. Enabled only when a client
// id is configured.
func NewGoogleProvider(clientID, clientSecret, redirectURL string) *GoogleProvider {
	if clientID == "" {
		return nil
	}
	return &GoogleProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
	}
}

// AuthURL builds the consent page URL for the given anti-forgery state.
func (p *GoogleProvider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange trades the callback code for a verified identity.
func (p *GoogleProvider) Exchange(ctx context.Context, code string) (Identity, error) {
	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return Identity{}, fmt.Errorf("auth: google exchange: %w", err)
	}

	client := p.config.Client(ctx, token)
	resp, err := client.Get(googleUserInfoURL)
	if err != nil {
		return Identity{}, fmt.Errorf("auth: google userinfo: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Identity{}, fmt.Errorf("auth: google userinfo status %d", resp.StatusCode)
	}

	var profile struct {
		ID      string `json:"id"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return Identity{}, fmt.Errorf("auth: decode userinfo: %w", err)
	}
	if profile.Email == "" {
		return Identity{}, fmt.Errorf("auth: google profile missing email")
	}
	return Identity{
		Subject: profile.ID,
		Email:   profile.Email,
		Name:    profile.Name,
		Image:   profile.Picture,
	}, nil
}

// NewState produces a random anti-forgery state value.
func NewState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
