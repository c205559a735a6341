package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/shelfctl/internal/shared"
	"github.com/desertthunder/shelfctl/internal/tasks"
	"github.com/urfave/cli/v3"
)

// TaskShow fetches and displays the current state of a background task.
func (r *Runner) TaskShow(ctx context.Context, cmd *cli.Command) error {
	taskID := cmd.Int64("id")

	if r.library == nil {
		return fmt.Errorf("%w: library service not initialized", shared.ErrServiceUnavailable)
	}

	r.logger.Infof("fetching task %v", taskID)

	task, err := r.library.GetTask(ctx, taskID)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	return r.writeJSON(task, true)
}

// TaskWatch polls a background task to a terminal state, reporting the outcome.
func (r *Runner) TaskWatch(ctx context.Context, cmd *cli.Command) error {
	taskID := cmd.Int64("id")

	if r.library == nil {
		return fmt.Errorf("%w: library service not initialized", shared.ErrServiceUnavailable)
	}

	opts := r.uploadOptions(cmd).Poll
	opts.OnSuccess = func(bookIDs []int64) {
		r.writePlain("✓ Task %d completed\n", taskID)
		for _, id := range bookIDs {
			r.writePlain("  Book: %d\n", id)
		}
	}
	opts.OnError = func(message string) {
		r.writePlain("✗ %s\n", message)
	}

	r.logger.Info("watching task", "id", taskID)
	r.writePlain("Watching task %d...\n\n", taskID)

	poller := tasks.NewPoller(r.library, opts)
	if _, err := poller.Poll(ctx, taskID); err != nil {
		return err
	}

	return nil
}

// tasksCommand handles background task inspection
func tasksCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "tasks",
		Usage: "Inspect background tasks on the library server",
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Show the current state of a task",
				Flags: []cli.Flag{
					&cli.Int64Flag{
						Name:     "id",
						Usage:    "Task ID to show",
						Required: true,
					},
				},
				Action: r.TaskShow,
			},
			{
				Name:  "watch",
				Usage: "Poll a task until it reaches a terminal state",
				Flags: []cli.Flag{
					&cli.Int64Flag{
						Name:     "id",
						Usage:    "Task ID to watch",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "poll-interval",
						Usage: "Milliseconds between status checks (overrides config)",
					},
					&cli.IntFlag{
						Name:  "max-attempts",
						Usage: "Maximum status checks (overrides config)",
					},
				},
				Action: r.TaskWatch,
			},
		},
	}
}
