package main

import (
	"context"
	"errors"
	"os"

	"github.com/desertthunder/shelfctl/internal/services"
	"github.com/desertthunder/shelfctl/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	configPath := "config.toml"
	config := shared.DefaultConfig()
	if _, err := os.Stat(configPath); err == nil {
		if loadedConfig, err := shared.LoadConfig(configPath); err == nil {
			config = loadedConfig
		}
	}

	libraryService := services.NewLibraryService(config.Server.BaseURL, nil)
	apiService := services.NewAPIService(config.Server.BaseURL, nil)

	if config.Auth.HeadersPath != "" {
		if headers, err := shared.LoadHeadersFile(config.Auth.HeadersPath); err == nil {
			libraryService.Authenticate(context.Background(), map[string]string{
				"headers_file": config.Auth.HeadersPath,
			})
			apiService.SetHeaders(headers)
		} else {
			logger.Warnf("failed to load auth headers %v", err)
		}
	} else if config.Auth.ClientID != "" && config.Auth.TokenPath != "" {
		if flow, err := services.NewOAuthFlow(config.Auth); err == nil {
			if token, err := flow.LoadToken(); err == nil {
				libraryService.SetToken(token.AccessToken)
				apiService.SetHeaders(map[string]string{"Authorization": "Bearer " + token.AccessToken})
			}
		}
	}

	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: configPath,
		Library:    libraryService,
		API:        apiService,
		Logger:     logger,
	})

	app := &cli.Command{
		Name:     "shelfctl",
		Usage:    "Browse, upload, and organize books on a library server",
		Version:  "0.3.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		err_ := errors.Unwrap(err)
		if errors.Is(err_, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		} else {
			logger.Fatalf("application error: %v", err)
		}
	}
}
