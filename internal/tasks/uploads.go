package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/desertthunder/shelfctl/internal/models"
	"github.com/desertthunder/shelfctl/internal/services"
	"github.com/desertthunder/shelfctl/internal/shared"
	"golang.org/x/time/rate"
)

// FileUploadResult records the outcome of uploading a single file.
type FileUploadResult struct {
	Path    string  // Local file path
	BookIDs []int64 // Ids of the books created by the import
	TaskID  int64   // Background task handle, zero for synchronous imports
	Message string  // Classified failure message when Err is set
	Err     error
}

// UploadRunResult contains all data from a batch upload operation.
type UploadRunResult struct {
	BatchID    string             // Groups the files of this run in import history
	TotalFiles int                // Number of files submitted
	Succeeded  int                // Files imported successfully
	Failed     int                // Files that failed upload or polling
	BookIDs    []int64            // All book ids created across the batch
	Results    []FileUploadResult // Per-file outcomes
}

// EndpointResult represents the result of fetching data from a single API endpoint.
type EndpointResult struct {
	Endpoint string
	Data     any
	Error    error
}

// DumpResult contains all data fetched from the library server.
type DumpResult struct {
	Health   any              // Health status
	Books    any              // Library books
	Shelves  any              // Shelves
	Tasks    any              // Server task list
	Settings any              // Admin settings
	Errors   []EndpointResult // Failed endpoint fetches
}

type endpointOperation struct {
	name    string
	path    string
	target  *any
	phase   Phase
	message string
}

// UploadOpts contains configuration for a batch upload.
type UploadOpts struct {
	NumWorkers int         // Concurrent uploads (default 3, capped at 8)
	RateLimit  float64     // Uploads started per second (default 2)
	Poll       PollOptions // Polling configuration for deferred imports
}

// Engine defines the long-running operations the CLI and TUI drive.
type Engine interface {
	// Run uploads the given files, polling any background tasks the server
	// creates, and reports per-file outcomes.
	Run(ctx context.Context, progress chan<- ProgressUpdate, paths []string, opts UploadOpts) (*UploadRunResult, error)

	// Convert asks the server to convert a book and waits for the resulting task.
	Convert(ctx context.Context, progress chan<- ProgressUpdate, bookID int64, format string, opts UploadOpts) ([]int64, error)

	// Dump fetches all data from the library server for backup or debugging.
	Dump(ctx context.Context, progress chan<- ProgressUpdate) (*DumpResult, error)
}

// APIClient defines the interface for raw API requests to the server.
// This abstraction allows for easier testing and decoupling from concrete implementation.
type APIClient interface {
	Get(ctx context.Context, path string) (*services.APIResponse, error)
}

// ImportRecorder persists upload outcomes to the local import history.
// Implemented by repositories.ImportRepository. Recording is best-effort:
// failures never disrupt an upload in progress.
type ImportRecorder interface {
	Create(record *models.ImportRecord) error
	Update(record *models.ImportRecord) error
}

// ImportEngine implements [Engine] for book uploads and conversions.
//
// Files in a batch upload independently: each deferred import gets its own
// poller, and pollers for different tasks never coordinate. The only shared
// state is an in-flight counter surfaced through progress updates, which UI
// layers use to decide between per-file notices and a batch summary.
type ImportEngine struct {
	library  services.Service
	api      APIClient
	recorder ImportRecorder
	inFlight atomic.Int64
}

// NewImportEngine creates an ImportEngine for the given library service.
func NewImportEngine(library services.Service, api APIClient) *ImportEngine {
	return &ImportEngine{
		library: library,
		api:     api,
	}
}

// SetRecorder enables best-effort persistence of upload outcomes.
func (e *ImportEngine) SetRecorder(r ImportRecorder) {
	e.recorder = r
}

// InFlight reports how many uploads are currently running.
func (e *ImportEngine) InFlight() int {
	return int(e.inFlight.Load())
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *ImportEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
		// Sent successfully
	default:
		// Channel full or closed, skip this update
	}
}

type uploadJob struct {
	index int
	path  string
}

// Run uploads files concurrently with rate limiting and per-file task polling.
func (e *ImportEngine) Run(ctx context.Context, progress chan<- ProgressUpdate, paths []string, opts UploadOpts) (*UploadRunResult, error) {
	if e.library == nil {
		return nil, fmt.Errorf("%w: library service not initialized", shared.ErrServiceUnavailable)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no files to upload", shared.ErrMissingArgument)
	}

	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 3
	}
	if opts.NumWorkers > 8 {
		opts.NumWorkers = 8
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 2.0
	}

	result := &UploadRunResult{
		BatchID:    shared.GenerateID(),
		TotalFiles: len(paths),
		Results:    make([]FileUploadResult, len(paths)),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan uploadJob, len(paths))
	var wg sync.WaitGroup

	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				if ctx.Err() != nil {
					result.Results[job.index] = FileUploadResult{
						Path:    job.path,
						Err:     ctx.Err(),
						Message: msgPollInterrupted,
					}
					continue
				}

				if err := limiter.Wait(ctx); err != nil {
					result.Results[job.index] = FileUploadResult{
						Path:    job.path,
						Err:     err,
						Message: msgPollInterrupted,
					}
					continue
				}

				result.Results[job.index] = e.uploadSingle(ctx, progress, result.BatchID, job, len(paths), opts)
			}
		}()
	}

	for i, path := range paths {
		jobs <- uploadJob{index: i, path: path}
	}
	close(jobs)
	wg.Wait()

	for _, res := range result.Results {
		if res.Err != nil {
			result.Failed++
		} else {
			result.Succeeded++
			result.BookIDs = append(result.BookIDs, res.BookIDs...)
		}
	}

	return result, nil
}

// uploadSingle uploads one file and, when the server defers to a background
// task, polls that task to a terminal state.
func (e *ImportEngine) uploadSingle(ctx context.Context, progress chan<- ProgressUpdate, batchID string, job uploadJob, total int, opts UploadOpts) FileUploadResult {
	e.inFlight.Add(1)
	defer e.inFlight.Add(-1)

	step := job.index + 1
	inFlight := int(e.inFlight.Load())
	result := FileUploadResult{Path: job.path}

	record := models.NewImportRecord(batchID, job.path)
	e.record(func() error { return e.recorder.Create(record) })

	e.sendProgress(progress, uploadingFileUpdate(step, total, inFlight, job.path))

	receipt, err := e.library.UploadBook(ctx, job.path)
	if err != nil {
		result.Err = err
		result.Message = uploadFailureMessage(err)
		record.MarkFailed(result.Message)
		e.record(func() error { return e.recorder.Update(record) })
		e.sendProgress(progress, fileFailedUpdate(step, total, inFlight, job.path, result.Message))
		return result
	}

	if !receipt.Deferred() {
		result.BookIDs = receipt.BookIDs
		record.MarkSucceeded(receipt.BookIDs)
		e.record(func() error { return e.recorder.Update(record) })
		e.sendProgress(progress, fileImportedUpdate(step, total, inFlight, job.path, receipt.BookIDs))
		return result
	}

	result.TaskID = receipt.TaskID
	record.SetTaskID(receipt.TaskID)
	e.record(func() error { return e.recorder.Update(record) })
	e.sendProgress(progress, pollingTaskUpdate(step, total, inFlight, job.path, receipt.TaskID))

	ids, pollErr := e.pollReceipt(ctx, receipt.TaskID, opts.Poll, &result)
	if pollErr != nil {
		record.MarkFailed(result.Message)
		e.record(func() error { return e.recorder.Update(record) })
		e.sendProgress(progress, fileFailedUpdate(step, total, inFlight, job.path, result.Message))
		return result
	}

	result.BookIDs = ids
	record.MarkSucceeded(ids)
	e.record(func() error { return e.recorder.Update(record) })
	e.sendProgress(progress, fileImportedUpdate(step, total, inFlight, job.path, ids))
	return result
}

// pollReceipt runs a fresh poller for one deferred import, chaining the
// caller's callbacks and capturing the classified failure message.
func (e *ImportEngine) pollReceipt(ctx context.Context, taskID int64, popts PollOptions, result *FileUploadResult) ([]int64, error) {
	userErr := popts.OnError
	popts.OnError = func(msg string) {
		result.Message = msg
		if userErr != nil {
			userErr(msg)
		}
	}

	poller := NewPoller(e.library, popts)
	ids, err := poller.Poll(ctx, taskID)
	if err != nil {
		result.Err = err
		if result.Message == "" {
			result.Message = err.Error()
		}
		return nil, err
	}
	return ids, nil
}

// Convert requests a format conversion and waits for the resulting task.
func (e *ImportEngine) Convert(ctx context.Context, progress chan<- ProgressUpdate, bookID int64, format string, opts UploadOpts) ([]int64, error) {
	if e.library == nil {
		return nil, fmt.Errorf("%w: library service not initialized", shared.ErrServiceUnavailable)
	}

	e.sendProgress(progress, convertingBookUpdate(bookID, format))

	receipt, err := e.library.ConvertBook(ctx, bookID, format)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to request conversion: %v", shared.ErrAPIRequest, err)
	}

	if !receipt.Deferred() {
		// Some servers convert small files inline.
		return receipt.BookIDs, nil
	}

	poller := NewPoller(e.library, opts.Poll)
	return poller.Poll(ctx, receipt.TaskID)
}

// Dump fetches all data from the library server.
func (e *ImportEngine) Dump(ctx context.Context, progress chan<- ProgressUpdate) (*DumpResult, error) {
	if e.api == nil {
		return nil, fmt.Errorf("%w: API client not initialized", shared.ErrServiceUnavailable)
	}

	result := &DumpResult{
		Errors: []EndpointResult{},
	}

	endpoints := []endpointOperation{
		{name: "health", path: "/api/health", target: &result.Health, phase: FetchHealth, message: "Fetching health status..."},
		{name: "books", path: "/api/books", target: &result.Books, phase: FetchBooks, message: "Fetching books..."},
		{name: "shelves", path: "/api/shelves", target: &result.Shelves, phase: FetchShelves, message: "Fetching shelves..."},
		{name: "tasks", path: "/tasks", target: &result.Tasks, phase: FetchTasks, message: "Fetching tasks..."},
		{name: "settings", path: "/api/admin/settings", target: &result.Settings, phase: FetchSettings, message: "Fetching admin settings..."},
	}

	totalSteps := len(endpoints)

	for i, endpoint := range endpoints {
		e.sendProgress(progress, operationUpdate(endpoint, i+1, totalSteps))

		resp, err := e.api.Get(ctx, endpoint.path)
		if err != nil || resp.StatusCode < 200 || resp.StatusCode >= 300 {
			errMsg := ""
			if err != nil {
				errMsg = err.Error()
			} else {
				errMsg = fmt.Sprintf("status %d", resp.StatusCode)
			}
			result.Errors = append(result.Errors, EndpointResult{
				Endpoint: endpoint.path,
				Error:    errors.New(errMsg),
			})
		} else {
			*endpoint.target = resp.JSONData
		}
	}

	return result, nil
}

// record invokes a recorder operation when a recorder is configured,
// swallowing errors so history persistence never disrupts an upload.
func (e *ImportEngine) record(fn func() error) {
	if e.recorder == nil {
		return
	}
	_ = fn()
}

// uploadFailureMessage classifies an upload error for display.
func uploadFailureMessage(err error) string {
	var httpErr *services.HTTPError
	if errors.As(err, &httpErr) && httpErr.Detail != "" {
		return httpErr.Detail
	}
	return err.Error()
}
