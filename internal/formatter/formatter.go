// package formatter provides functions to export shelf data to various formats (CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/shelfctl/internal/services"
	"github.com/desertthunder/shelfctl/internal/shared"
	"github.com/desertthunder/shelfctl/internal/tasks"
)

// ExportToCSV converts a ShelfExport to CSV format with columns: ID, Title, Author, Series, Series Index, Formats, Tags
func ExportToCSV(export *services.ShelfExport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Title", "Author", "Series", "Series Index", "Formats", "Tags"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, book := range export.Books {
		record := []string{
			strconv.FormatInt(book.ID, 10),
			book.Title,
			book.Author(),
			book.Series,
			formatSeriesIndex(book.SeriesIndex),
			strings.Join(book.Formats, ";"),
			strings.Join(book.Tags, ";"),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a ShelfExport to Markdown format with optional cover image
func ExportToMarkdown(export *services.ShelfExport, imageFilename string) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", export.Shelf.Name))

	if imageFilename != "" {
		buf.WriteString(fmt.Sprintf("![Cover](%s)\n\n", imageFilename))
	}

	buf.WriteString(fmt.Sprintf("**Books**: %d\n", len(export.Books)))
	buf.WriteString(fmt.Sprintf("**Visibility**: %s\n\n", shared.VisibilityString(export.Shelf.Public)))

	buf.WriteString("## Books\n\n")
	for i, book := range export.Books {
		seriesPart := ""
		if book.Series != "" {
			seriesPart = fmt.Sprintf(" (%s #%s)", book.Series, formatSeriesIndex(book.SeriesIndex))
		}
		formatsPart := ""
		if len(book.Formats) > 0 {
			formatsPart = fmt.Sprintf(" [%s]", strings.Join(book.Formats, ", "))
		}
		buf.WriteString(fmt.Sprintf("%d. %s - %s%s%s\n", i+1, book.Author(), book.Title, seriesPart, formatsPart))
	}

	return buf.Bytes(), nil
}

// ExportToText converts a ShelfExport to plain text format
func ExportToText(export *services.ShelfExport) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Shelf: %s\n", export.Shelf.Name))
	buf.WriteString(fmt.Sprintf("Books: %d\n\n", len(export.Books)))

	for i, book := range export.Books {
		buf.WriteString(fmt.Sprintf("%d. %s - %s\n", i+1, book.Author(), book.Title))
	}

	return buf.Bytes(), nil
}

// FormatUploadSummary renders a batch upload outcome as plain text.
//
// Per-file lines carry the classified failure message so a reader can tell a
// server rejection from a timeout without digging through logs.
func FormatUploadSummary(result *tasks.UploadRunResult) string {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Batch %s: %d file(s), %d succeeded, %d failed\n", result.BatchID, result.TotalFiles, result.Succeeded, result.Failed))

	for _, res := range result.Results {
		if res.Err != nil {
			buf.WriteString(fmt.Sprintf("  FAIL %s: %s\n", res.Path, res.Message))
			continue
		}
		ids := make([]string, len(res.BookIDs))
		for i, id := range res.BookIDs {
			ids[i] = strconv.FormatInt(id, 10)
		}
		buf.WriteString(fmt.Sprintf("  OK   %s -> book(s) %s\n", res.Path, strings.Join(ids, ", ")))
	}

	return buf.String()
}

// DownloadImage downloads an image from the given URL and returns the raw bytes
func DownloadImage(url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("empty URL provided")
	}

	client := &http.Client{
		Timeout: 30 * time.Second,
	}

	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	return imageData, nil
}

// ToMetadataJSON generates a JSON representation of shelf metadata (without books)
func ToMetadataJSON(shelf services.Shelf) ([]byte, error) {
	return shared.MarshalJSON(shelf, true)
}

// CSVExportResult contains the paths of files created by WriteCSVExport
type CSVExportResult struct {
	BooksFile    string
	MetadataFile string
}

// WriteCSVExport exports a shelf to CSV format with accompanying metadata JSON file.
//
// Defaults to the shelf id as the base filename & creates {base}_books.csv and {base}_metadata.json
func WriteCSVExport(export *services.ShelfExport, baseFilepath string) (*CSVExportResult, error) {
	if baseFilepath == "" {
		baseFilepath = fmt.Sprintf("shelf_%d", export.Shelf.ID)
	}

	csvData, err := ExportToCSV(export)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSV: %w", err)
	}

	booksFile := baseFilepath + "_books.csv"
	if err := os.WriteFile(booksFile, csvData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write CSV file: %w", err)
	}

	metadataJSON, err := ToMetadataJSON(export.Shelf)
	if err != nil {
		return nil, fmt.Errorf("failed to generate metadata JSON: %w", err)
	}

	metadataFile := baseFilepath + "_metadata.json"
	if err := os.WriteFile(metadataFile, metadataJSON, 0644); err != nil {
		return nil, fmt.Errorf("failed to write metadata file: %w", err)
	}

	return &CSVExportResult{
		BooksFile:    booksFile,
		MetadataFile: metadataFile,
	}, nil
}

// MarkdownExportResult contains information about files created by WriteMarkdownExport
type MarkdownExportResult struct {
	Directory  string
	Files      []string
	CoverImage string
}

// WriteMarkdownExport exports a shelf to Markdown format in a dedicated directory.
//
// Directory name defaults to the shelf id.
// The imageURL parameter is optional - if provided, attempts to download the cover image.
// Creates a directory structure: {dir}/README.md and optionally {dir}/cover.jpg
func WriteMarkdownExport(export *services.ShelfExport, outputDir string, imageURL string) (*MarkdownExportResult, error) {
	if outputDir == "" {
		outputDir = fmt.Sprintf("shelf_%d", export.Shelf.ID)
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	result := &MarkdownExportResult{
		Directory: outputDir,
		Files:     []string{},
	}

	var coverImageFilename string
	if imageURL != "" {
		imageData, err := DownloadImage(imageURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to download cover image: %v\n", err)
		} else {
			coverImageFilename = "cover.jpg"
			coverImagePath := fmt.Sprintf("%s/%s", outputDir, coverImageFilename)
			if err := os.WriteFile(coverImagePath, imageData, 0644); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to save cover image: %v\n", err)
				coverImageFilename = ""
			} else {
				result.CoverImage = coverImagePath
				result.Files = append(result.Files, coverImagePath)
			}
		}
	}

	mdData, err := ExportToMarkdown(export, coverImageFilename)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := fmt.Sprintf("%s/README.md", outputDir)
	if err := os.WriteFile(mdFile, mdData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}

	result.Files = append(result.Files, mdFile)

	return result, nil
}

// WriteTextExport exports a shelf to plain text format.
//
// Defaults to shelf_{id}_books.txt as the filename.
func WriteTextExport(export *services.ShelfExport, filepath string) (string, error) {
	if filepath == "" {
		filepath = fmt.Sprintf("shelf_%d_books.txt", export.Shelf.ID)
	}

	textData, err := ExportToText(export)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	if err := os.WriteFile(filepath, textData, 0644); err != nil {
		return "", fmt.Errorf("failed to write text file: %w", err)
	}

	return filepath, nil
}

// formatSeriesIndex trims trailing zeros so whole-number positions print as "1".
func formatSeriesIndex(index float64) string {
	if index == 0 {
		return ""
	}
	return strconv.FormatFloat(index, 'f', -1, 64)
}
