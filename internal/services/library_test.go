package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/desertthunder/shelfctl/internal/shared"
)

func TestLibraryService(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		t.Run("With Custom BaseURL and Client", func(t *testing.T) {
			customClient := &http.Client{}
			svc := NewLibraryService("http://example.com", customClient)

			if svc.baseURL != "http://example.com" {
				t.Errorf("expected baseURL 'http://example.com', got %s", svc.baseURL)
			}
			if svc.httpClient != customClient {
				t.Error("expected custom client to be used")
			}
		})

		t.Run("With Empty BaseURL", func(t *testing.T) {
			svc := NewLibraryService("", nil)

			if svc.baseURL != defaultLibraryBaseURL {
				t.Errorf("expected default baseURL %q, got %s", defaultLibraryBaseURL, svc.baseURL)
			}
			if svc.httpClient != http.DefaultClient {
				t.Error("expected http.DefaultClient to be used")
			}
		})
	})

	t.Run("Authenticate", func(t *testing.T) {
		ctx := context.Background()

		t.Run("With Headers File", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "headers.json")
			data, _ := json.Marshal(map[string]string{"Cookie": "session=abc"})
			if err := os.WriteFile(path, data, 0600); err != nil {
				t.Fatalf("failed to write headers file: %v", err)
			}

			svc := NewLibraryService("", nil)
			if err := svc.Authenticate(ctx, map[string]string{"headers_file": path}); err != nil {
				t.Fatalf("Authenticate failed: %v", err)
			}
			if svc.headers["Cookie"] != "session=abc" {
				t.Errorf("expected Cookie header to be loaded, got %v", svc.headers)
			}
		})

		t.Run("With Token", func(t *testing.T) {
			svc := NewLibraryService("", nil)
			if err := svc.Authenticate(ctx, map[string]string{"token": "tok123"}); err != nil {
				t.Fatalf("Authenticate failed: %v", err)
			}
			if svc.token != "tok123" {
				t.Errorf("expected token 'tok123', got %s", svc.token)
			}
		})

		t.Run("With Missing Credentials", func(t *testing.T) {
			svc := NewLibraryService("", nil)
			err := svc.Authenticate(ctx, map[string]string{})
			if !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})

		t.Run("With Unreadable Headers File", func(t *testing.T) {
			svc := NewLibraryService("", nil)
			err := svc.Authenticate(ctx, map[string]string{"headers_file": "/nonexistent/headers.json"})
			if !errors.Is(err, shared.ErrInvalidCredentials) {
				t.Errorf("expected ErrInvalidCredentials, got %v", err)
			}
		})
	})

	t.Run("Auth Header Injection", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Cookie") != "session=abc" {
				t.Errorf("expected session cookie, got %q", r.Header.Get("Cookie"))
			}
			if r.Header.Get("Authorization") != "Bearer tok123" {
				t.Errorf("expected bearer token, got %q", r.Header.Get("Authorization"))
			}
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		svc := NewLibraryService(server.URL, nil)
		svc.headers = map[string]string{"Cookie": "session=abc"}
		svc.SetToken("tok123")

		if err := svc.Health(context.Background()); err != nil {
			t.Fatalf("Health failed: %v", err)
		}
	})

	t.Run("GetBooks", func(t *testing.T) {
		t.Run("Passes Pagination Query", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/api/books" {
					t.Errorf("expected path '/api/books', got %s", r.URL.Path)
				}
				q := r.URL.Query()
				if q.Get("limit") != "25" || q.Get("offset") != "50" || q.Get("sort") != "title" {
					t.Errorf("unexpected query: %s", r.URL.RawQuery)
				}
				json.NewEncoder(w).Encode([]Book{{ID: 1, Title: "Dune"}})
			}))
			defer server.Close()

			svc := NewLibraryService(server.URL, nil)
			books, err := svc.GetBooks(context.Background(), ListOptions{Limit: 25, Offset: 50, Sort: "title"})
			if err != nil {
				t.Fatalf("GetBooks failed: %v", err)
			}
			if len(books) != 1 || books[0].Title != "Dune" {
				t.Errorf("unexpected books: %+v", books)
			}
		})

		t.Run("Decodes Detail Error", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusForbidden)
				json.NewEncoder(w).Encode(map[string]string{"detail": "login required"})
			}))
			defer server.Close()

			svc := NewLibraryService(server.URL, nil)
			_, err := svc.GetBooks(context.Background(), ListOptions{})

			var httpErr *HTTPError
			if !errors.As(err, &httpErr) {
				t.Fatalf("expected HTTPError, got %v", err)
			}
			if httpErr.StatusCode != http.StatusForbidden {
				t.Errorf("expected status 403, got %d", httpErr.StatusCode)
			}
			if httpErr.Detail != "login required" {
				t.Errorf("expected detail 'login required', got %q", httpErr.Detail)
			}
		})

		t.Run("Handles Non-JSON Error Body", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte("Internal Server Error"))
			}))
			defer server.Close()

			svc := NewLibraryService(server.URL, nil)
			_, err := svc.GetBooks(context.Background(), ListOptions{})

			var httpErr *HTTPError
			if !errors.As(err, &httpErr) {
				t.Fatalf("expected HTTPError, got %v", err)
			}
			if httpErr.Detail != "" {
				t.Errorf("expected empty detail, got %q", httpErr.Detail)
			}
		})

		t.Run("Rejects Malformed Success Body", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("not json"))
			}))
			defer server.Close()

			svc := NewLibraryService(server.URL, nil)
			_, err := svc.GetBooks(context.Background(), ListOptions{})
			if !errors.Is(err, shared.ErrMalformedResponse) {
				t.Errorf("expected ErrMalformedResponse, got %v", err)
			}
		})
	})

	t.Run("UploadBook", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "book.epub")
		if err := os.WriteFile(path, []byte("epub bytes"), 0644); err != nil {
			t.Fatalf("failed to write fixture: %v", err)
		}

		t.Run("Immediate Import", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/api/upload" {
					t.Errorf("expected path '/api/upload', got %s", r.URL.Path)
				}
				f, header, err := r.FormFile("file")
				if err != nil {
					t.Fatalf("expected multipart file field: %v", err)
				}
				defer f.Close()
				if header.Filename != "book.epub" {
					t.Errorf("expected filename 'book.epub', got %s", header.Filename)
				}

				w.WriteHeader(http.StatusCreated)
				json.NewEncoder(w).Encode(UploadReceipt{BookIDs: []int64{7}})
			}))
			defer server.Close()

			svc := NewLibraryService(server.URL, nil)
			receipt, err := svc.UploadBook(context.Background(), path)
			if err != nil {
				t.Fatalf("UploadBook failed: %v", err)
			}
			if receipt.Deferred() {
				t.Error("expected immediate receipt")
			}
			if len(receipt.BookIDs) != 1 || receipt.BookIDs[0] != 7 {
				t.Errorf("unexpected book ids: %v", receipt.BookIDs)
			}
		})

		t.Run("Deferred Task", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusAccepted)
				json.NewEncoder(w).Encode(UploadReceipt{TaskID: 42})
			}))
			defer server.Close()

			svc := NewLibraryService(server.URL, nil)
			receipt, err := svc.UploadBook(context.Background(), path)
			if err != nil {
				t.Fatalf("UploadBook failed: %v", err)
			}
			if !receipt.Deferred() || receipt.TaskID != 42 {
				t.Errorf("expected deferred receipt with task 42, got %+v", receipt)
			}
		})

		t.Run("Missing File", func(t *testing.T) {
			svc := NewLibraryService("http://unused", nil)
			if _, err := svc.UploadBook(context.Background(), "/nonexistent/book.epub"); err == nil {
				t.Error("expected error for missing file")
			}
		})
	})

	t.Run("GetTask", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/tasks/42" {
				t.Errorf("expected path '/tasks/42', got %s", r.URL.Path)
			}
			json.NewEncoder(w).Encode(Task{ID: 42, Status: TaskCompleted, Metadata: map[string]any{"book_ids": []any{float64(7)}}})
		}))
		defer server.Close()

		svc := NewLibraryService(server.URL, nil)
		task, err := svc.GetTask(context.Background(), 42)
		if err != nil {
			t.Fatalf("GetTask failed: %v", err)
		}
		if task.ID != 42 || task.Status != TaskCompleted {
			t.Errorf("unexpected task: %+v", task)
		}
	})

	t.Run("DownloadBook", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/books/7/download" {
				t.Errorf("expected path '/api/books/7/download', got %s", r.URL.Path)
			}
			if r.URL.Query().Get("format") != "epub" {
				t.Errorf("expected format 'epub', got %s", r.URL.Query().Get("format"))
			}
			w.Write([]byte("epub bytes"))
		}))
		defer server.Close()

		svc := NewLibraryService(server.URL, nil)
		var buf bytes.Buffer
		n, err := svc.DownloadBook(context.Background(), 7, "epub", &buf)
		if err != nil {
			t.Fatalf("DownloadBook failed: %v", err)
		}
		if n != int64(len("epub bytes")) || buf.String() != "epub bytes" {
			t.Errorf("unexpected download: n=%d body=%q", n, buf.String())
		}
	})

	t.Run("Shelves", func(t *testing.T) {
		t.Run("GetShelfBooks Path", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/api/shelves/3/books" {
					t.Errorf("expected path '/api/shelves/3/books', got %s", r.URL.Path)
				}
				json.NewEncoder(w).Encode([]Book{{ID: 1}})
			}))
			defer server.Close()

			svc := NewLibraryService(server.URL, nil)
			books, err := svc.GetShelfBooks(context.Background(), 3)
			if err != nil {
				t.Fatalf("GetShelfBooks failed: %v", err)
			}
			if len(books) != 1 {
				t.Errorf("expected one book, got %d", len(books))
			}
		})

		t.Run("CreateShelf Payload", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				var body struct {
					Name   string `json:"name"`
					Public bool   `json:"public"`
				}
				if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
					t.Fatalf("failed to decode request: %v", err)
				}
				if body.Name != "scifi" || !body.Public {
					t.Errorf("unexpected payload: %+v", body)
				}
				json.NewEncoder(w).Encode(Shelf{ID: 3, Name: "scifi", Public: true})
			}))
			defer server.Close()

			svc := NewLibraryService(server.URL, nil)
			shelf, err := svc.CreateShelf(context.Background(), "scifi", true)
			if err != nil {
				t.Fatalf("CreateShelf failed: %v", err)
			}
			if shelf.ID != 3 {
				t.Errorf("expected shelf id 3, got %d", shelf.ID)
			}
		})
	})
}
