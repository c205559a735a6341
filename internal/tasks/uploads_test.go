package tasks

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/desertthunder/shelfctl/internal/models"
	"github.com/desertthunder/shelfctl/internal/services"
)

// stubLibrary satisfies services.Service for the methods the engine actually
// calls; everything else panics through the embedded nil interface.
type stubLibrary struct {
	services.Service

	mu      sync.Mutex
	uploads []string

	upload  func(path string) (*services.UploadReceipt, error)
	convert func(bookID int64, format string) (*services.UploadReceipt, error)
	getTask func(taskID int64) (*services.Task, error)
}

func (s *stubLibrary) UploadBook(ctx context.Context, path string) (*services.UploadReceipt, error) {
	s.mu.Lock()
	s.uploads = append(s.uploads, path)
	s.mu.Unlock()
	return s.upload(path)
}

func (s *stubLibrary) ConvertBook(ctx context.Context, bookID int64, format string) (*services.UploadReceipt, error) {
	return s.convert(bookID, format)
}

func (s *stubLibrary) GetTask(ctx context.Context, taskID int64) (*services.Task, error) {
	return s.getTask(taskID)
}

type recordedOp struct {
	op     string
	status models.ImportStatus
}

// fakeRecorder captures import history writes.
type fakeRecorder struct {
	mu  sync.Mutex
	ops []recordedOp
}

func (r *fakeRecorder) Create(record *models.ImportRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, recordedOp{op: "create", status: record.Status()})
	return nil
}

func (r *fakeRecorder) Update(record *models.ImportRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, recordedOp{op: "update", status: record.Status()})
	return nil
}

func fastOpts() UploadOpts {
	return UploadOpts{
		NumWorkers: 2,
		RateLimit:  1000,
		Poll:       PollOptions{Scheduler: &fakeScheduler{}},
	}
}

func TestImportEngineRun(t *testing.T) {
	ctx := context.Background()

	t.Run("synchronous imports", func(t *testing.T) {
		next := int64(0)
		lib := &stubLibrary{
			upload: func(path string) (*services.UploadReceipt, error) {
				next++
				return &services.UploadReceipt{BookIDs: []int64{next}}, nil
			},
		}

		engine := NewImportEngine(lib, nil)
		result, err := engine.Run(ctx, nil, []string{"a.epub", "b.epub", "c.epub"}, fastOpts())
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}

		if result.TotalFiles != 3 || result.Succeeded != 3 || result.Failed != 0 {
			t.Errorf("counts = %d/%d/%d, want 3/3/0", result.TotalFiles, result.Succeeded, result.Failed)
		}
		if len(result.BookIDs) != 3 {
			t.Errorf("BookIDs = %v, want 3 ids", result.BookIDs)
		}
		if result.BatchID == "" {
			t.Error("BatchID is empty")
		}
		for i, res := range result.Results {
			if res.Err != nil {
				t.Errorf("Results[%d].Err = %v", i, res.Err)
			}
		}
	})

	t.Run("deferred import polls its task", func(t *testing.T) {
		lib := &stubLibrary{
			upload: func(path string) (*services.UploadReceipt, error) {
				return &services.UploadReceipt{TaskID: 55}, nil
			},
			getTask: func(taskID int64) (*services.Task, error) {
				if taskID != 55 {
					t.Errorf("polled task %d, want 55", taskID)
				}
				return completedTask(55, float64(8), float64(9)), nil
			},
		}

		engine := NewImportEngine(lib, nil)
		result, err := engine.Run(ctx, nil, []string{"big.epub"}, fastOpts())
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}

		res := result.Results[0]
		if res.TaskID != 55 {
			t.Errorf("TaskID = %d, want 55", res.TaskID)
		}
		if len(res.BookIDs) != 2 {
			t.Errorf("BookIDs = %v, want [8 9]", res.BookIDs)
		}
		if result.Succeeded != 1 {
			t.Errorf("Succeeded = %d, want 1", result.Succeeded)
		}
	})

	t.Run("upload failure carries server detail", func(t *testing.T) {
		lib := &stubLibrary{
			upload: func(path string) (*services.UploadReceipt, error) {
				return nil, &services.HTTPError{StatusCode: 422, Detail: "unsupported format"}
			},
		}

		engine := NewImportEngine(lib, nil)
		result, err := engine.Run(ctx, nil, []string{"bad.xyz"}, fastOpts())
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}

		res := result.Results[0]
		if res.Err == nil {
			t.Fatal("Results[0].Err = nil, want error")
		}
		if res.Message != "unsupported format" {
			t.Errorf("Message = %q, want server detail", res.Message)
		}
		if result.Failed != 1 || result.Succeeded != 0 {
			t.Errorf("counts = %d failed / %d succeeded, want 1/0", result.Failed, result.Succeeded)
		}
	})

	t.Run("failed task carries classified message", func(t *testing.T) {
		lib := &stubLibrary{
			upload: func(path string) (*services.UploadReceipt, error) {
				return &services.UploadReceipt{TaskID: 3}, nil
			},
			getTask: func(taskID int64) (*services.Task, error) {
				return &services.Task{ID: 3, Status: services.TaskFailed, ErrorMessage: "disk full"}, nil
			},
		}

		engine := NewImportEngine(lib, nil)
		result, err := engine.Run(ctx, nil, []string{"a.epub"}, fastOpts())
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}

		res := result.Results[0]
		if res.Message != "disk full" {
			t.Errorf("Message = %q, want %q", res.Message, "disk full")
		}
		if result.Failed != 1 {
			t.Errorf("Failed = %d, want 1", result.Failed)
		}
	})

	t.Run("no files", func(t *testing.T) {
		engine := NewImportEngine(&stubLibrary{}, nil)
		if _, err := engine.Run(ctx, nil, nil, fastOpts()); err == nil {
			t.Error("Run() with no files should fail")
		}
	})

	t.Run("reports progress phases", func(t *testing.T) {
		lib := &stubLibrary{
			upload: func(path string) (*services.UploadReceipt, error) {
				return &services.UploadReceipt{BookIDs: []int64{1}}, nil
			},
		}

		progress := make(chan ProgressUpdate, 16)
		engine := NewImportEngine(lib, nil)
		if _, err := engine.Run(ctx, progress, []string{"a.epub"}, fastOpts()); err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		close(progress)

		seen := map[Phase]bool{}
		for update := range progress {
			seen[update.Phase] = true
		}
		if !seen[UploadFile] || !seen[FileImported] {
			t.Errorf("phases seen = %v, want upload and imported", seen)
		}
	})

	t.Run("records import history", func(t *testing.T) {
		lib := &stubLibrary{
			upload: func(path string) (*services.UploadReceipt, error) {
				return &services.UploadReceipt{BookIDs: []int64{1}}, nil
			},
		}
		recorder := &fakeRecorder{}

		engine := NewImportEngine(lib, nil)
		engine.SetRecorder(recorder)
		if _, err := engine.Run(ctx, nil, []string{"a.epub"}, fastOpts()); err != nil {
			t.Fatalf("Run() error = %v", err)
		}

		if len(recorder.ops) != 2 {
			t.Fatalf("recorded %d ops, want create + update", len(recorder.ops))
		}
		if recorder.ops[0].op != "create" || recorder.ops[0].status != models.ImportPending {
			t.Errorf("first op = %+v, want pending create", recorder.ops[0])
		}
		if recorder.ops[1].op != "update" || recorder.ops[1].status != models.ImportSucceeded {
			t.Errorf("second op = %+v, want succeeded update", recorder.ops[1])
		}
	})
}

func TestImportEngineConvert(t *testing.T) {
	ctx := context.Background()

	t.Run("inline conversion", func(t *testing.T) {
		lib := &stubLibrary{
			convert: func(bookID int64, format string) (*services.UploadReceipt, error) {
				return &services.UploadReceipt{BookIDs: []int64{bookID}}, nil
			},
		}

		engine := NewImportEngine(lib, nil)
		ids, err := engine.Convert(ctx, nil, 12, "epub", fastOpts())
		if err != nil {
			t.Fatalf("Convert() error = %v", err)
		}
		if len(ids) != 1 || ids[0] != 12 {
			t.Errorf("Convert() = %v, want [12]", ids)
		}
	})

	t.Run("deferred conversion polls", func(t *testing.T) {
		lib := &stubLibrary{
			convert: func(bookID int64, format string) (*services.UploadReceipt, error) {
				return &services.UploadReceipt{TaskID: 77}, nil
			},
			getTask: func(taskID int64) (*services.Task, error) {
				return completedTask(77, float64(12)), nil
			},
		}

		engine := NewImportEngine(lib, nil)
		ids, err := engine.Convert(ctx, nil, 12, "pdf", fastOpts())
		if err != nil {
			t.Fatalf("Convert() error = %v", err)
		}
		if len(ids) != 1 || ids[0] != 12 {
			t.Errorf("Convert() = %v, want [12]", ids)
		}
	})

	t.Run("conversion request failure", func(t *testing.T) {
		lib := &stubLibrary{
			convert: func(bookID int64, format string) (*services.UploadReceipt, error) {
				return nil, errors.New("boom")
			},
		}

		engine := NewImportEngine(lib, nil)
		if _, err := engine.Convert(ctx, nil, 12, "pdf", fastOpts()); err == nil {
			t.Error("Convert() should surface request errors")
		}
	})
}

// stubAPI returns canned responses per path.
type stubAPI struct {
	responses map[string]*services.APIResponse
	errs      map[string]error
}

func (s *stubAPI) Get(ctx context.Context, path string) (*services.APIResponse, error) {
	if err, ok := s.errs[path]; ok {
		return nil, err
	}
	if resp, ok := s.responses[path]; ok {
		return resp, nil
	}
	return &services.APIResponse{StatusCode: 404}, nil
}

func TestImportEngineDump(t *testing.T) {
	ctx := context.Background()

	ok := func(data any) *services.APIResponse {
		return &services.APIResponse{StatusCode: 200, IsJSON: true, JSONData: data}
	}

	t.Run("collects all endpoints", func(t *testing.T) {
		api := &stubAPI{responses: map[string]*services.APIResponse{
			"/api/health":         ok(map[string]any{"status": "ok"}),
			"/api/books":          ok([]any{}),
			"/api/shelves":        ok([]any{}),
			"/tasks":              ok([]any{}),
			"/api/admin/settings": ok(map[string]any{}),
		}}

		engine := NewImportEngine(nil, api)
		result, err := engine.Dump(ctx, nil)
		if err != nil {
			t.Fatalf("Dump() error = %v", err)
		}
		if len(result.Errors) != 0 {
			t.Errorf("Errors = %v, want none", result.Errors)
		}
		if result.Health == nil || result.Books == nil {
			t.Error("Dump() left endpoint data unset")
		}
	})

	t.Run("partial failure is not fatal", func(t *testing.T) {
		api := &stubAPI{
			responses: map[string]*services.APIResponse{
				"/api/health": ok(map[string]any{"status": "ok"}),
			},
			errs: map[string]error{
				"/api/admin/settings": errors.New("forbidden"),
			},
		}

		engine := NewImportEngine(nil, api)
		result, err := engine.Dump(ctx, nil)
		if err != nil {
			t.Fatalf("Dump() error = %v", err)
		}
		if result.Health == nil {
			t.Error("healthy endpoint missing from result")
		}
		if len(result.Errors) == 0 {
			t.Error("failed endpoints missing from Errors")
		}
	})

	t.Run("no api client", func(t *testing.T) {
		engine := NewImportEngine(&stubLibrary{}, nil)
		if _, err := engine.Dump(ctx, nil); err == nil {
			t.Error("Dump() without API client should fail")
		}
	})
}
