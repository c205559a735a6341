package shared

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

const sampleCurl = `curl 'https://books.example.com/api/books' \
  -H 'Accept: application/json' \
  -H 'User-Agent: Mozilla/5.0' \
  -b 'session=abc123; remember_token=xyz'`

func TestParseCurlCommand(t *testing.T) {
	t.Run("headers and cookie flag", func(t *testing.T) {
		parsed, err := ParseCurlCommand([]byte(sampleCurl))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if parsed.Headers["Accept"] != "application/json" {
			t.Errorf("unexpected Accept header: %s", parsed.Headers["Accept"])
		}
		if parsed.Cookie != "session=abc123; remember_token=xyz" {
			t.Errorf("unexpected cookie: %s", parsed.Cookie)
		}
	})

	t.Run("cookie as header", func(t *testing.T) {
		cmd := `curl 'https://books.example.com/' -H 'Cookie: session=def456' -H "Accept: text/html"`
		parsed, err := ParseCurlCommand([]byte(cmd))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if parsed.Cookie != "session=def456" {
			t.Errorf("unexpected cookie: %s", parsed.Cookie)
		}
		if _, ok := parsed.Headers["Cookie"]; ok {
			t.Error("cookie should not remain in headers map")
		}
	})

	t.Run("no headers", func(t *testing.T) {
		if _, err := ParseCurlCommand([]byte("curl 'https://books.example.com/'")); err == nil {
			t.Error("expected error for command without headers")
		}
	})
}

func TestCurlHeadersToHeaderMap(t *testing.T) {
	parsed := &CurlHeaders{
		Headers: map[string]string{"Accept": "application/json"},
		Cookie:  "session=abc",
	}

	m := parsed.ToHeaderMap()
	if m["Accept"] != "application/json" {
		t.Errorf("unexpected Accept value: %s", m["Accept"])
	}
	if m["Cookie"] != "session=abc" {
		t.Errorf("unexpected Cookie value: %s", m["Cookie"])
	}
}

func TestWriteAndLoadHeadersFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "headers.json")

	parsed, err := ParseCurlCommand([]byte(sampleCurl))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if err := parsed.WriteHeadersFile(path); err != nil {
		t.Fatalf("failed to write headers file: %v", err)
	}

	// File should be valid JSON on disk
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read headers file: %v", err)
	}
	var onDisk map[string]string
	if err := json.Unmarshal(raw, &onDisk); err != nil {
		t.Fatalf("headers file is not valid JSON: %v", err)
	}

	headers, err := LoadHeadersFile(path)
	if err != nil {
		t.Fatalf("failed to load headers file: %v", err)
	}
	if headers["Cookie"] != "session=abc123; remember_token=xyz" {
		t.Errorf("unexpected cookie after round trip: %s", headers["Cookie"])
	}
}
