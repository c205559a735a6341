package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/shelfctl/internal/shared"
	"github.com/desertthunder/shelfctl/internal/tasks"
	"github.com/urfave/cli/v3"
)

// APIGet makes a direct GET request to the library server
func (r *Runner) APIGet(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	useJSON := cmd.Bool("json")

	r.logger.Info("GET request", "path", path)

	resp, err := r.api.Get(ctx, path)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d, body: %s", shared.ErrAPIRequest, resp.StatusCode, string(resp.Body))
	}

	if useJSON {
		if resp.IsJSON {
			return r.writeJSON(resp.JSONData, false)
		}
		r.output.Write(resp.Body)
		r.output.Write([]byte("\n"))
		return nil
	}

	if resp.IsJSON {
		return r.writeJSON(resp.JSONData, true)
	}

	r.output.Write(resp.Body)
	r.output.Write([]byte("\n"))
	return nil
}

// APIPost makes a direct POST request to the library server
func (r *Runner) APIPost(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	data := cmd.String("data")

	if data == "" {
		return fmt.Errorf("%w: --data flag is required", shared.ErrMissingArgument)
	}

	r.logger.Info("POST request", "path", path)

	if err := shared.ValidateJSON([]byte(data)); err != nil {
		return err
	}

	resp, err := r.api.Post(ctx, path, []byte(data))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d, body: %s", shared.ErrAPIRequest, resp.StatusCode, string(resp.Body))
	}

	if resp.IsJSON {
		return r.writeJSON(resp.JSONData, true)
	}

	r.output.Write(resp.Body)
	r.output.Write([]byte("\n"))
	return nil
}

// APIDump fetches and displays the full server state.
func (r *Runner) APIDump(ctx context.Context, cmd *cli.Command) error {
	pretty := cmd.Bool("pretty")
	save := cmd.Bool("save")

	r.logger.Info("dumping server state")
	r.writePlain("Fetching server state...\n\n")

	progressCh := make(chan tasks.ProgressUpdate, 10)
	go func() {
		for update := range progressCh {
			switch update.Phase {
			case tasks.FetchHealth:
				r.writePlain("📊 %s\n", update.Message)
			case tasks.FetchBooks:
				r.writePlain("📚 %s\n", update.Message)
			case tasks.FetchShelves:
				r.writePlain("🗂  %s\n", update.Message)
			case tasks.FetchTasks:
				r.writePlain("⏳ %s\n", update.Message)
			case tasks.FetchSettings:
				r.writePlain("⚙️  %s\n", update.Message)
			}
		}
	}()

	dump, err := r.engine.Dump(ctx, progressCh)
	close(progressCh)

	if err != nil {
		return err
	}

	for _, failed := range dump.Errors {
		r.logger.Warn("failed to fetch endpoint", "endpoint", failed.Endpoint, "error", failed.Error)
	}

	r.writePlain("\n✓ Dump complete\n\n")

	type DumpData struct {
		Health   any   `json:"health"`
		Books    any   `json:"books,omitempty"`
		Shelves  any   `json:"shelves,omitempty"`
		Tasks    any   `json:"tasks,omitempty"`
		Settings any   `json:"settings,omitempty"`
		Errors   []any `json:"errors,omitempty"`
	}

	data := DumpData{
		Health:   dump.Health,
		Books:    dump.Books,
		Shelves:  dump.Shelves,
		Tasks:    dump.Tasks,
		Settings: dump.Settings,
	}
	for _, failed := range dump.Errors {
		data.Errors = append(data.Errors, map[string]string{
			"endpoint": failed.Endpoint,
			"error":    failed.Error.Error(),
		})
	}

	// Save to file if requested
	if save {
		saveFile := "api_dump.json"
		raw, err := shared.MarshalJSON(data, true)
		if err != nil {
			return fmt.Errorf("failed to marshal dump: %w", err)
		}
		if err := os.WriteFile(saveFile, raw, 0644); err != nil {
			r.logger.Warn("failed to save dump", "error", err)
		} else {
			r.logger.Info("dump saved", "file", saveFile)
			r.writePlain("✓ Dump saved to %s\n\n", saveFile)
		}
	}

	return r.writeJSON(data, pretty)
}
