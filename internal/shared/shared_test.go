package shared

import (
	"strings"
	"testing"
)

func TestNormalizeBookKey(t *testing.T) {
	tc := []struct {
		name   string
		title  string
		author string
		want   string
	}{
		{
			name:   "basic normalization",
			title:  "Book Title",
			author: "Author Name",
			want:   "book title|author name",
		},
		{
			name:   "extra whitespace",
			title:  "  Book   Title  ",
			author: "  Author   Name  ",
			want:   "book title|author name",
		},
		{
			name:   "mixed case",
			title:  "BoOk TiTlE",
			author: "AuThOr NaMe",
			want:   "book title|author name",
		},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeBookKey(tt.title, tt.author)
			if got != tt.want {
				t.Errorf("NormalizeBookKey() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFormatFileSize(t *testing.T) {
	tc := []struct {
		name string
		size int64
		want string
	}{
		{name: "bytes", size: 512, want: "512 B"},
		{name: "kilobytes", size: 2048, want: "2.0 KB"},
		{name: "megabytes", size: 1536 * 1024, want: "1.5 MB"},
		{name: "zero", size: 0, want: "0 B"},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatFileSize(tt.size)
			if got != tt.want {
				t.Errorf("FormatFileSize(%d) = %v, want %v", tt.size, got, tt.want)
			}
		})
	}
}

func TestGenerateID(t *testing.T) {
	a := GenerateID()
	b := GenerateID()

	if a == b {
		t.Error("expected unique IDs")
	}
	if len(strings.Split(a, "-")) != 5 {
		t.Errorf("expected UUID format, got %s", a)
	}
}

func TestVisibilityString(t *testing.T) {
	if got := VisibilityString(true); got != "Public" {
		t.Errorf("expected 'Public', got %s", got)
	}
	if got := VisibilityString(false); got != "Private" {
		t.Errorf("expected 'Private', got %s", got)
	}
}

func TestMarshalJSON(t *testing.T) {
	payload := map[string]int{"count": 3}

	t.Run("compact", func(t *testing.T) {
		data, err := MarshalJSON(payload, false)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if string(data) != `{"count":3}` {
			t.Errorf("unexpected output: %s", data)
		}
	})

	t.Run("pretty", func(t *testing.T) {
		data, err := MarshalJSON(payload, true)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(string(data), "\n") {
			t.Error("expected indented output")
		}
	})
}
