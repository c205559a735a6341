package ui

import (
	"github.com/desertthunder/shelfctl/internal/services"
	"github.com/desertthunder/shelfctl/internal/tasks"
)

// booksFetchedMsg carries the initial library listing.
type booksFetchedMsg struct {
	books []services.Book
	err   error
}

// progressUpdateMsg carries one engine progress update.
type progressUpdateMsg tasks.ProgressUpdate

// uploadCompleteMsg carries the final batch outcome.
type uploadCompleteMsg struct {
	result *tasks.UploadRunResult
	err    error
}
