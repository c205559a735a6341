package formatter

import (
	"encoding/csv"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/shelfctl/internal/services"
	"github.com/desertthunder/shelfctl/internal/tasks"
)

func sampleExport() *services.ShelfExport {
	return &services.ShelfExport{
		Shelf: services.Shelf{
			ID:        5,
			Name:      "Space Opera",
			Public:    true,
			BookCount: 2,
		},
		Books: []services.Book{
			{
				ID:          1,
				Title:       "Hyperion",
				Authors:     []string{"Dan Simmons"},
				Series:      "Hyperion Cantos",
				SeriesIndex: 1,
				Formats:     []string{"EPUB"},
				Tags:        []string{"sf"},
			},
			{
				ID:      2,
				Title:   "Ancillary Justice",
				Authors: []string{"Ann Leckie"},
				Formats: []string{"EPUB", "MOBI"},
			},
		},
	}
}

func TestExportToCSV(t *testing.T) {
	data, err := ExportToCSV(sampleExport())
	if err != nil {
		t.Fatalf("failed to export CSV: %v", err)
	}

	records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	if err != nil {
		t.Fatalf("generated CSV does not parse: %v", err)
	}

	if len(records) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(records))
	}
	if records[0][0] != "ID" || records[0][1] != "Title" {
		t.Errorf("unexpected header: %v", records[0])
	}
	if records[1][1] != "Hyperion" || records[1][2] != "Dan Simmons" {
		t.Errorf("unexpected first row: %v", records[1])
	}
	if records[2][5] != "EPUB;MOBI" {
		t.Errorf("expected joined formats, got %q", records[2][5])
	}
}

func TestExportToMarkdown(t *testing.T) {
	t.Run("without cover", func(t *testing.T) {
		data, err := ExportToMarkdown(sampleExport(), "")
		if err != nil {
			t.Fatalf("failed to export Markdown: %v", err)
		}

		md := string(data)
		if !strings.HasPrefix(md, "# Space Opera") {
			t.Errorf("missing shelf heading: %q", md)
		}
		if !strings.Contains(md, "**Visibility**: public") {
			t.Error("missing visibility line")
		}
		if !strings.Contains(md, "1. Dan Simmons - Hyperion (Hyperion Cantos #1) [EPUB]") {
			t.Errorf("unexpected book line in:\n%s", md)
		}
		if strings.Contains(md, "![Cover]") {
			t.Error("cover image referenced without a filename")
		}
	})

	t.Run("with cover", func(t *testing.T) {
		data, err := ExportToMarkdown(sampleExport(), "cover.jpg")
		if err != nil {
			t.Fatalf("failed to export Markdown: %v", err)
		}
		if !strings.Contains(string(data), "![Cover](cover.jpg)") {
			t.Error("missing cover image reference")
		}
	})
}

func TestExportToText(t *testing.T) {
	data, err := ExportToText(sampleExport())
	if err != nil {
		t.Fatalf("failed to export text: %v", err)
	}

	text := string(data)
	if !strings.Contains(text, "Shelf: Space Opera") {
		t.Error("missing shelf name")
	}
	if !strings.Contains(text, "2. Ann Leckie - Ancillary Justice") {
		t.Errorf("unexpected book lines:\n%s", text)
	}
}

func TestFormatUploadSummary(t *testing.T) {
	result := &tasks.UploadRunResult{
		BatchID:    "batch-1",
		TotalFiles: 2,
		Succeeded:  1,
		Failed:     1,
		Results: []tasks.FileUploadResult{
			{Path: "a.epub", BookIDs: []int64{8, 9}},
			{Path: "b.epub", Err: errors.New("rejected"), Message: "unsupported format"},
		},
	}

	summary := FormatUploadSummary(result)
	if !strings.Contains(summary, "Batch batch-1: 2 file(s), 1 succeeded, 1 failed") {
		t.Errorf("unexpected header:\n%s", summary)
	}
	if !strings.Contains(summary, "OK   a.epub -> book(s) 8, 9") {
		t.Errorf("missing success line:\n%s", summary)
	}
	if !strings.Contains(summary, "FAIL b.epub: unsupported format") {
		t.Errorf("missing failure line:\n%s", summary)
	}
}

func TestWriteCSVExport(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "export")

	result, err := WriteCSVExport(sampleExport(), base)
	if err != nil {
		t.Fatalf("failed to write CSV export: %v", err)
	}

	if _, err := os.Stat(result.BooksFile); err != nil {
		t.Errorf("books file missing: %v", err)
	}
	if _, err := os.Stat(result.MetadataFile); err != nil {
		t.Errorf("metadata file missing: %v", err)
	}

	metadata, err := os.ReadFile(result.MetadataFile)
	if err != nil {
		t.Fatalf("failed to read metadata: %v", err)
	}
	if !strings.Contains(string(metadata), "\"Space Opera\"") {
		t.Errorf("metadata missing shelf name: %s", metadata)
	}
}

func TestWriteMarkdownExport(t *testing.T) {
	t.Run("with downloadable cover", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("jpeg-bytes"))
		}))
		defer server.Close()

		dir := filepath.Join(t.TempDir(), "shelf")
		result, err := WriteMarkdownExport(sampleExport(), dir, server.URL)
		if err != nil {
			t.Fatalf("failed to write Markdown export: %v", err)
		}

		if result.CoverImage == "" {
			t.Error("cover image not saved")
		}
		if len(result.Files) != 2 {
			t.Errorf("expected cover + README, got %v", result.Files)
		}
	})

	t.Run("cover download failure is not fatal", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		dir := filepath.Join(t.TempDir(), "shelf")
		result, err := WriteMarkdownExport(sampleExport(), dir, server.URL)
		if err != nil {
			t.Fatalf("failed to write Markdown export: %v", err)
		}

		if result.CoverImage != "" {
			t.Error("cover image should be empty on download failure")
		}
		if _, err := os.Stat(filepath.Join(dir, "README.md")); err != nil {
			t.Errorf("README missing: %v", err)
		}
	})
}

func TestWriteTextExport(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "books.txt")

	written, err := WriteTextExport(sampleExport(), path)
	if err != nil {
		t.Fatalf("failed to write text export: %v", err)
	}
	if written != path {
		t.Errorf("expected path %s, got %s", path, written)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read export: %v", err)
	}
	if !strings.Contains(string(data), "Hyperion") {
		t.Errorf("export missing book data:\n%s", data)
	}
}
