// OAuth2 support for library servers behind an identity provider.
//
// Servers configured with an OAuth provider accept a bearer token instead of
// session headers. The CLI runs the authorization-code flow with a temporary
// localhost callback server and persists the token for later runs.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/desertthunder/shelfctl/internal/shared"
	"golang.org/x/oauth2"
)

// OAuthFlow bundles the OAuth2 configuration for a library server login.
type OAuthFlow struct {
	config    *oauth2.Config
	tokenPath string
}

// NewOAuthFlow builds an OAuth flow from the auth section of the config file.
func NewOAuthFlow(cfg shared.AuthConfig) (*OAuthFlow, error) {
	if cfg.ClientID == "" || cfg.AuthURL == "" || cfg.TokenURL == "" {
		return nil, fmt.Errorf("%w: OAuth requires client_id, auth_url and token_url", shared.ErrMissingCredentials)
	}

	redirect := cfg.RedirectURI
	if redirect == "" {
		redirect = "http://localhost:3000/callback"
	}

	return &OAuthFlow{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  redirect,
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.AuthURL,
				TokenURL: cfg.TokenURL,
			},
		},
		tokenPath: cfg.TokenPath,
	}, nil
}

// Config exposes the underlying [oauth2.Config] for the callback handler.
func (f *OAuthFlow) Config() *oauth2.Config {
	return f.config
}

// AuthCodeURL builds the provider authorization URL for the given CSRF state.
func (f *OAuthFlow) AuthCodeURL(state string) string {
	return f.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Client returns an HTTP client that injects and refreshes the token.
func (f *OAuthFlow) Client(ctx context.Context, token *oauth2.Token) *http.Client {
	return f.config.Client(ctx, token)
}

// SaveToken persists a token to the configured token path.
func (f *OAuthFlow) SaveToken(token *oauth2.Token) error {
	if f.tokenPath == "" {
		return fmt.Errorf("%w: token_path not configured", shared.ErrInvalidConfig)
	}

	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}

	if err := os.WriteFile(f.tokenPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}

	return nil
}

// LoadToken reads a previously saved token.
func (f *OAuthFlow) LoadToken() (*oauth2.Token, error) {
	if f.tokenPath == "" {
		return nil, fmt.Errorf("%w: token_path not configured", shared.ErrInvalidConfig)
	}

	data, err := os.ReadFile(f.tokenPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrNotAuthenticated, err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("failed to parse token file: %w", err)
	}

	if !token.Valid() && token.RefreshToken == "" {
		return nil, shared.ErrTokenExpired
	}

	return &token, nil
}
