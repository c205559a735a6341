package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/shelfctl/internal/services"
)

var (
	_ list.Item = bookItem{}
)

// bookItem wraps [services.Book] to implement [list.Item].
type bookItem struct {
	book services.Book
}

func (i bookItem) FilterValue() string { return i.book.Title }
func (i bookItem) Title() string       { return i.book.Title }
func (i bookItem) Description() string {
	desc := i.book.Author()
	if i.book.Series != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.book.Series)
	}
	if len(i.book.Formats) > 0 {
		desc = fmt.Sprintf("%s • %s", desc, strings.Join(i.book.Formats, ", "))
	}
	return desc
}
