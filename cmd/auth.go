package main

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/desertthunder/shelfctl/internal/server"
	"github.com/desertthunder/shelfctl/internal/services"
	"github.com/desertthunder/shelfctl/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// AuthImport extracts library session headers from a browser cURL command.
//
// Accepts a cURL command copied from DevTools and generates headers.json.
func (r *Runner) AuthImport(ctx context.Context, cmd *cli.Command) error {
	curlCmd := cmd.String("curl")
	curlFile := cmd.String("curl-file")
	outputPath := cmd.String("output")

	if curlCmd == "" && curlFile == "" {
		return fmt.Errorf("%w: either --curl or --curl-file must be provided", shared.ErrMissingArgument)
	}

	if curlCmd != "" && curlFile != "" {
		return fmt.Errorf("%w: cannot specify both --curl and --curl-file", shared.ErrInvalidArgument)
	}

	r.logger.Info("parsing cURL command for library session headers")

	var curlHeaders *shared.CurlHeaders
	var err error

	if curlFile != "" {
		curlHeaders, err = shared.ParseCurlFile(curlFile)
		if err != nil {
			return fmt.Errorf("failed to parse cURL file: %w", err)
		}
		r.logger.Info("parsed cURL from file", "file", curlFile)
	} else {
		curlHeaders, err = shared.ParseCurlCommand([]byte(curlCmd))
		if err != nil {
			return fmt.Errorf("failed to parse cURL command: %w", err)
		}
		r.logger.Info("parsed cURL command")
	}

	if outputPath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		outputPath = filepath.Join(homeDir, ".shelfctl", "headers.json")
	}

	outputDir := filepath.Dir(outputPath)
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := curlHeaders.WriteHeadersFile(outputPath); err != nil {
		return fmt.Errorf("failed to write headers file: %w", err)
	}

	r.logger.Info("headers.json saved", "path", outputPath)

	headers := curlHeaders.ToHeaderMap()
	if r.api != nil {
		r.api.SetHeaders(headers)
	}
	if r.library != nil {
		if err := r.library.Authenticate(ctx, map[string]string{"headers_file": outputPath}); err != nil {
			r.logger.Warnf("failed to apply session headers %v", err)
		}
	}

	r.writePlain("✓ Library session headers imported successfully\n")
	r.writePlain("Headers file saved to: %s\n", outputPath)
	r.writePlainln("Next steps:")
	r.writePlain("1. Update config.toml with: auth.headers_path = \"%s\"\n", outputPath)
	r.writePlain("2. Run 'shelfctl auth status' to verify the session\n")

	return nil
}

// AuthLogin performs the OAuth2 authorization-code flow against the library's provider.
//
// Starts a local HTTP server, opens a browser for user authorization, and
// persists the resulting token for later runs.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	config := r.config
	if config == nil {
		var err error
		if _, statErr := os.Stat(configPath); statErr == nil {
			config, err = shared.LoadConfig(configPath)
			if err != nil {
				r.logger.Warnf("failed to load config, using defaults %v", err)
				config = shared.DefaultConfig()
			}
		} else {
			config = shared.DefaultConfig()
		}
	}

	if config.Auth.ClientID == "" {
		return fmt.Errorf("%w: auth.client_id must be set in config.toml", shared.ErrInvalidArgument)
	}

	flow, err := services.NewOAuthFlow(config.Auth)
	if err != nil {
		return fmt.Errorf("failed to create OAuth flow: %w", err)
	}

	token, err := r.doOAuth(config, flow)
	if err != nil {
		return err
	}

	if err := flow.SaveToken(token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}

	if lib, ok := r.library.(*services.LibraryService); ok {
		lib.SetToken(token.AccessToken)
	}
	if r.api != nil {
		r.api.SetHeaders(map[string]string{"Authorization": "Bearer " + token.AccessToken})
	}

	r.writePlainln("✓ Authorization successful")
	r.writePlain("✓ Token saved to %s\n\n", config.Auth.TokenPath)
	r.writePlain("You can now use: shelfctl library list\n")

	return nil
}

// doOAuth executes the OAuth2 authorization flow with a local HTTP server
func (r *Runner) doOAuth(config *shared.Config, flow *services.OAuthFlow) (*oauth2.Token, error) {
	state, err := shared.GenerateState()
	if err != nil {
		return nil, fmt.Errorf("failed to generate state token: %w", err)
	}

	authURL := flow.AuthCodeURL(state)
	oauthHandler := server.NewOAuthHandler(flow.Config(), state)
	router := server.NewBasicRouter()
	router.Handler(oauthHandler)

	serverAddr, err := callbackAddr(config.Auth.RedirectURI)
	if err != nil {
		return nil, err
	}
	httpServer := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("starting OAuth callback server at %v", serverAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	time.Sleep(100 * time.Millisecond)

	r.writePlain("→ Opening browser for authorization...\n")
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (2 minute timeout)...\n")

	timeout := time.NewTimer(2 * time.Minute)
	defer timeout.Stop()

	var result server.OAuthResult

	select {
	case result = <-oauthHandler.Result():
		// Got result from callback
	case err := <-serverErrors:
		return nil, fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		return nil, fmt.Errorf("%w: authorization timed out after 2 minutes", shared.ErrTimeout)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		r.logger.Warn("error shutting down server", "error", err)
	}

	if result.Error() != nil {
		return nil, fmt.Errorf("authorization failed: %w", result.Error())
	}

	if result.Token == nil {
		return nil, fmt.Errorf("no token received")
	}

	return result.Token, nil
}

// callbackAddr derives the local listen address from the configured redirect URI.
func callbackAddr(redirectURI string) (string, error) {
	if redirectURI == "" {
		return "localhost:3000", nil
	}

	parsed, err := url.Parse(redirectURI)
	if err != nil {
		return "", fmt.Errorf("%w: invalid redirect_uri: %v", shared.ErrInvalidConfig, err)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("%w: redirect_uri has no host", shared.ErrInvalidConfig)
	}

	return parsed.Host, nil
}

// AuthStatus checks current authentication state by calling the health endpoint.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	r.logger.Info("checking auth status")

	resp, err := r.api.Get(ctx, "/api/health")
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}

	if !resp.IsJSON {
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return r.writePlain("✓ Server is healthy\nStatus: %s\n", string(resp.Body))
		}
		return fmt.Errorf("%w: status %d", shared.ErrServiceUnavailable, resp.StatusCode)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		healthData, ok := resp.JSONData.(map[string]any)
		if !ok {
			return r.writePlain("✓ Server is healthy\n")
		}

		status, ok := healthData["status"].(string)
		if !ok {
			status = "unknown"
		}
		authenticated := false
		if auth, ok := healthData["authenticated"].(bool); ok {
			authenticated = auth
		}

		r.writePlain("✓ Server is healthy\n")
		r.writePlain("Status: %s\n", status)
		if authenticated {
			r.writePlain("Authentication: ✓ Authenticated\n")
		} else {
			r.writePlain("Authentication: ✗ Not authenticated\n")
		}
		return nil
	}

	return fmt.Errorf("%w: status %d", shared.ErrServiceUnavailable, resp.StatusCode)
}
