// Library server [Service] implementation
//
// Communicates with the library server's JSON API. Authentication is either a
// set of session headers captured from the browser (`shelfctl auth import`) or
// an OAuth bearer token (`shelfctl auth login`).
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"github.com/desertthunder/shelfctl/internal/shared"
)

const defaultLibraryBaseURL string = "http://localhost:8083"

// HTTPError is a non-2xx response from the library server.
//
// Detail carries the server's optional {"detail": string} error payload;
// it is empty when the response body had no usable detail field.
type HTTPError struct {
	StatusCode int
	Detail     string
}

func (e *HTTPError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("library API error (status %d): %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("library API error: status %d", e.StatusCode)
}

// LibraryService implements [Service] and [AdminService] against a library server.
type LibraryService struct {
	baseURL    string
	name       string
	headers    map[string]string
	token      string
	httpClient *http.Client
}

// NewLibraryService creates a new library server client.
func NewLibraryService(baseURL string, client *http.Client) *LibraryService {
	if baseURL == "" {
		baseURL = defaultLibraryBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &LibraryService{
		baseURL:    baseURL,
		name:       "Library",
		httpClient: client,
	}
}

// Name returns the service name.
func (l *LibraryService) Name() string {
	return l.name
}

// Authenticate configures session headers or a bearer token for subsequent requests.
//
// Expects credentials["headers_file"] (path to headers.json) or credentials["token"].
func (l *LibraryService) Authenticate(ctx context.Context, credentials map[string]string) error {
	if path, ok := credentials["headers_file"]; ok && path != "" {
		headers, err := shared.LoadHeadersFile(path)
		if err != nil {
			return fmt.Errorf("%w: %v", shared.ErrInvalidCredentials, err)
		}
		l.headers = headers
		return nil
	}

	if token, ok := credentials["token"]; ok && token != "" {
		l.token = token
		return nil
	}

	return fmt.Errorf("%w: need headers_file or token", shared.ErrMissingCredentials)
}

// SetToken replaces the bearer token, used after an OAuth refresh.
func (l *LibraryService) SetToken(token string) {
	l.token = token
}

func (l *LibraryService) applyAuth(req *http.Request) {
	for key, value := range l.headers {
		req.Header.Set(key, value)
	}
	if l.token != "" {
		req.Header.Set("Authorization", "Bearer "+l.token)
	}
}

func (l *LibraryService) doRequest(ctx context.Context, method, endpoint string, body io.Reader, contentType string, result any) error {
	apiURL := l.baseURL + endpoint

	req, err := http.NewRequestWithContext(ctx, method, apiURL, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	l.applyAuth(req)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeHTTPError(resp)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("%w: %v", shared.ErrMalformedResponse, err)
		}
	}

	return nil
}

// decodeHTTPError extracts the optional {"detail": string} payload from a
// non-2xx response.
func decodeHTTPError(resp *http.Response) error {
	var errResp struct {
		Detail string `json:"detail"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Detail != "" {
		return &HTTPError{StatusCode: resp.StatusCode, Detail: errResp.Detail}
	}
	return &HTTPError{StatusCode: resp.StatusCode}
}

// Health checks the server's health endpoint.
func (l *LibraryService) Health(ctx context.Context) error {
	return l.doRequest(ctx, http.MethodGet, "/api/health", nil, "", nil)
}

// GetBooks retrieves a page of books.
//
// Calls GET /api/books with pagination query parameters.
func (l *LibraryService) GetBooks(ctx context.Context, opts ListOptions) ([]Book, error) {
	query := url.Values{}
	if opts.Limit > 0 {
		query.Set("limit", fmt.Sprintf("%d", opts.Limit))
	}
	if opts.Offset > 0 {
		query.Set("offset", fmt.Sprintf("%d", opts.Offset))
	}
	if opts.Sort != "" {
		query.Set("sort", opts.Sort)
	}

	endpoint := "/api/books"
	if encoded := query.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}

	var books []Book
	if err := l.doRequest(ctx, http.MethodGet, endpoint, nil, "", &books); err != nil {
		return nil, err
	}

	return books, nil
}

// GetBook retrieves a single book by library id.
//
// Calls GET /api/books/{id}.
func (l *LibraryService) GetBook(ctx context.Context, bookID int64) (*Book, error) {
	var book Book
	endpoint := fmt.Sprintf("/api/books/%d", bookID)
	if err := l.doRequest(ctx, http.MethodGet, endpoint, nil, "", &book); err != nil {
		return nil, err
	}

	return &book, nil
}

// SearchBooks performs a full-text search.
//
// Calls GET /api/search?q={query}.
func (l *LibraryService) SearchBooks(ctx context.Context, query string) ([]Book, error) {
	endpoint := fmt.Sprintf("/api/search?q=%s", url.QueryEscape(query))

	var books []Book
	if err := l.doRequest(ctx, http.MethodGet, endpoint, nil, "", &books); err != nil {
		return nil, err
	}

	return books, nil
}

// DownloadBook streams a book file to w.
//
// Calls GET /api/books/{id}/download?format={format}.
func (l *LibraryService) DownloadBook(ctx context.Context, bookID int64, format string, w io.Writer) (int64, error) {
	endpoint := fmt.Sprintf("/api/books/%d/download?format=%s", bookID, url.QueryEscape(format))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.baseURL+endpoint, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	l.applyAuth(req)

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, decodeHTTPError(resp)
	}

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("failed to stream book: %w", err)
	}

	return n, nil
}

// GetShelves retrieves all shelves visible to the user.
//
// Calls GET /api/shelves.
func (l *LibraryService) GetShelves(ctx context.Context) ([]Shelf, error) {
	var shelves []Shelf
	if err := l.doRequest(ctx, http.MethodGet, "/api/shelves", nil, "", &shelves); err != nil {
		return nil, err
	}

	return shelves, nil
}

// GetShelfBooks retrieves the books on a shelf.
//
// Calls GET /api/shelves/{id}/books.
func (l *LibraryService) GetShelfBooks(ctx context.Context, shelfID int64) ([]Book, error) {
	var books []Book
	endpoint := fmt.Sprintf("/api/shelves/%d/books", shelfID)
	if err := l.doRequest(ctx, http.MethodGet, endpoint, nil, "", &books); err != nil {
		return nil, err
	}

	return books, nil
}

// CreateShelf creates a new shelf.
//
// Calls POST /api/shelves.
func (l *LibraryService) CreateShelf(ctx context.Context, name string, public bool) (*Shelf, error) {
	payload, err := json.Marshal(struct {
		Name   string `json:"name"`
		Public bool   `json:"public"`
	}{Name: name, Public: public})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal shelf request: %w", err)
	}

	var shelf Shelf
	if err := l.doRequest(ctx, http.MethodPost, "/api/shelves", bytes.NewReader(payload), "application/json", &shelf); err != nil {
		return nil, err
	}

	return &shelf, nil
}

// AddToShelf places a book on a shelf.
//
// Calls POST /api/shelves/{id}/books.
func (l *LibraryService) AddToShelf(ctx context.Context, shelfID, bookID int64) error {
	payload, err := json.Marshal(struct {
		BookID int64 `json:"book_id"`
	}{BookID: bookID})
	if err != nil {
		return fmt.Errorf("failed to marshal shelf request: %w", err)
	}

	endpoint := fmt.Sprintf("/api/shelves/%d/books", shelfID)
	return l.doRequest(ctx, http.MethodPost, endpoint, bytes.NewReader(payload), "application/json", nil)
}

// RemoveFromShelf removes a book from a shelf.
//
// Calls DELETE /api/shelves/{id}/books/{book_id}.
func (l *LibraryService) RemoveFromShelf(ctx context.Context, shelfID, bookID int64) error {
	endpoint := fmt.Sprintf("/api/shelves/%d/books/%d", shelfID, bookID)
	return l.doRequest(ctx, http.MethodDelete, endpoint, nil, "", nil)
}

// UploadBook submits a book file as multipart form data.
//
// Calls POST /api/upload. A 201 response carries the imported book ids; a 202
// response carries the id of the background task processing the file.
func (l *LibraryService) UploadBook(ctx context.Context, path string) (*UploadReceipt, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize form: %w", err)
	}

	var receipt UploadReceipt
	if err := l.doRequest(ctx, http.MethodPost, "/api/upload", &buf, writer.FormDataContentType(), &receipt); err != nil {
		return nil, err
	}

	return &receipt, nil
}

// ConvertBook requests a format conversion for a book.
//
// Calls POST /api/books/{id}/convert. Conversion always runs as a background
// task, so the receipt carries a task id.
func (l *LibraryService) ConvertBook(ctx context.Context, bookID int64, format string) (*UploadReceipt, error) {
	payload, err := json.Marshal(struct {
		Format string `json:"format"`
	}{Format: format})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal convert request: %w", err)
	}

	var receipt UploadReceipt
	endpoint := fmt.Sprintf("/api/books/%d/convert", bookID)
	if err := l.doRequest(ctx, http.MethodPost, endpoint, bytes.NewReader(payload), "application/json", &receipt); err != nil {
		return nil, err
	}

	return &receipt, nil
}

// GetTask retrieves the current state of a background task.
//
// Calls GET /tasks/{id}.
func (l *LibraryService) GetTask(ctx context.Context, taskID int64) (*Task, error) {
	var task Task
	endpoint := fmt.Sprintf("/tasks/%d", taskID)
	if err := l.doRequest(ctx, http.MethodGet, endpoint, nil, "", &task); err != nil {
		return nil, err
	}

	return &task, nil
}

// GetSettings retrieves the server's admin settings document.
//
// Calls GET /api/admin/settings.
func (l *LibraryService) GetSettings(ctx context.Context) (map[string]any, error) {
	var settings map[string]any
	if err := l.doRequest(ctx, http.MethodGet, "/api/admin/settings", nil, "", &settings); err != nil {
		return nil, err
	}

	return settings, nil
}

// UpdateSettings applies a partial settings update.
//
// Calls PATCH /api/admin/settings.
func (l *LibraryService) UpdateSettings(ctx context.Context, patch map[string]any) error {
	payload, err := json.Marshal(patch)
	if err != nil {
		return fmt.Errorf("failed to marshal settings patch: %w", err)
	}

	return l.doRequest(ctx, http.MethodPatch, "/api/admin/settings", bytes.NewReader(payload), "application/json", nil)
}
