// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"testing"

	"github.com/desertthunder/shelfctl/internal/services"
)

// MockService is a configurable test double for [services.Service].
//
// Zero-value fields produce empty successful responses; set the corresponding
// field to script a specific outcome.
type MockService struct {
	Books    []services.Book
	Shelves  []services.Shelf
	Receipt  *services.UploadReceipt
	Task     *services.Task
	Err      error
	TaskErrs []error // Consumed one per GetTask call, then falls back to Err

	taskCalls int
}

func (m *MockService) Authenticate(ctx context.Context, credentials map[string]string) error {
	return m.Err
}

func (m *MockService) Health(ctx context.Context) error {
	return m.Err
}

func (m *MockService) GetBooks(ctx context.Context, opts services.ListOptions) ([]services.Book, error) {
	return m.Books, m.Err
}

func (m *MockService) GetBook(ctx context.Context, bookID int64) (*services.Book, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	for i := range m.Books {
		if m.Books[i].ID == bookID {
			return &m.Books[i], nil
		}
	}
	return nil, errors.New("book not found")
}

func (m *MockService) SearchBooks(ctx context.Context, query string) ([]services.Book, error) {
	return m.Books, m.Err
}

func (m *MockService) DownloadBook(ctx context.Context, bookID int64, format string, w io.Writer) (int64, error) {
	if m.Err != nil {
		return 0, m.Err
	}
	n, err := w.Write([]byte("book-bytes"))
	return int64(n), err
}

func (m *MockService) GetShelves(ctx context.Context) ([]services.Shelf, error) {
	return m.Shelves, m.Err
}

func (m *MockService) GetShelfBooks(ctx context.Context, shelfID int64) ([]services.Book, error) {
	return m.Books, m.Err
}

func (m *MockService) CreateShelf(ctx context.Context, name string, public bool) (*services.Shelf, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return &services.Shelf{ID: 1, Name: name, Public: public}, nil
}

func (m *MockService) AddToShelf(ctx context.Context, shelfID, bookID int64) error {
	return m.Err
}

func (m *MockService) RemoveFromShelf(ctx context.Context, shelfID, bookID int64) error {
	return m.Err
}

func (m *MockService) UploadBook(ctx context.Context, path string) (*services.UploadReceipt, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Receipt != nil {
		return m.Receipt, nil
	}
	return &services.UploadReceipt{BookIDs: []int64{1}}, nil
}

func (m *MockService) ConvertBook(ctx context.Context, bookID int64, format string) (*services.UploadReceipt, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Receipt != nil {
		return m.Receipt, nil
	}
	return &services.UploadReceipt{BookIDs: []int64{bookID}}, nil
}

func (m *MockService) GetTask(ctx context.Context, taskID int64) (*services.Task, error) {
	if m.taskCalls < len(m.TaskErrs) {
		err := m.TaskErrs[m.taskCalls]
		m.taskCalls++
		if err != nil {
			return nil, err
		}
	}
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Task != nil {
		return m.Task, nil
	}
	return &services.Task{ID: taskID, Status: services.TaskCompleted, Metadata: map[string]any{"book_ids": []any{float64(1)}}}, nil
}

func (m *MockService) Name() string { return "mock" }

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
