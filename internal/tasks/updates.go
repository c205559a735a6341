package tasks

import (
	"fmt"
	"path/filepath"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase    Phase  // Operation phase
	Step     int    // Current step number within phase
	Total    int    // Total steps in this phase
	Message  string // Human-readable message for display
	InFlight int    // Uploads currently in flight, for presentation decisions
	Data     any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	UploadFile Phase = iota
	PollTask
	FileImported
	FileFailed
	ConvertBook
	FetchHealth
	FetchBooks
	FetchShelves
	FetchTasks
	FetchSettings
)

func (p Phase) String() string {
	switch p {
	case UploadFile:
		return "upload_file"
	case PollTask:
		return "poll_task"
	case FileImported:
		return "file_imported"
	case FileFailed:
		return "file_failed"
	case ConvertBook:
		return "convert_book"
	case FetchHealth:
		return "fetch_health"
	case FetchBooks:
		return "fetch_books"
	case FetchShelves:
		return "fetch_shelves"
	case FetchTasks:
		return "fetch_tasks"
	case FetchSettings:
		return "fetch_settings"
	default:
		return ""
	}
}

func uploadingFileUpdate(step, total, inFlight int, path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:    UploadFile,
		Step:     step,
		Total:    total,
		InFlight: inFlight,
		Message:  fmt.Sprintf("[%d/%d] Uploading %s...", step, total, filepath.Base(path)),
	}
}

func pollingTaskUpdate(step, total, inFlight int, path string, taskID int64) ProgressUpdate {
	return ProgressUpdate{
		Phase:    PollTask,
		Step:     step,
		Total:    total,
		InFlight: inFlight,
		Message:  fmt.Sprintf("[%d/%d] %s queued as task %d, waiting...", step, total, filepath.Base(path), taskID),
		Data:     taskID,
	}
}

func fileImportedUpdate(step, total, inFlight int, path string, bookIDs []int64) ProgressUpdate {
	return ProgressUpdate{
		Phase:    FileImported,
		Step:     step,
		Total:    total,
		InFlight: inFlight,
		Message:  fmt.Sprintf("[%d/%d] ✓ %s (%d book(s))", step, total, filepath.Base(path), len(bookIDs)),
		Data:     bookIDs,
	}
}

func fileFailedUpdate(step, total, inFlight int, path, message string) ProgressUpdate {
	return ProgressUpdate{
		Phase:    FileFailed,
		Step:     step,
		Total:    total,
		InFlight: inFlight,
		Message:  fmt.Sprintf("[%d/%d] ✗ %s: %s", step, total, filepath.Base(path), message),
	}
}

func convertingBookUpdate(bookID int64, format string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ConvertBook,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Converting book %d to %s...", bookID, format),
	}
}

func operationUpdate(endpoint endpointOperation, step int, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   endpoint.phase,
		Step:    step,
		Total:   total,
		Message: endpoint.message,
	}
}
