package ui

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/shelfctl/internal/services"
	"github.com/desertthunder/shelfctl/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	BookListView ViewState = iota
	ConfirmView
	UploadView
	ResultView
)

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	view         ViewState
	library      services.Service
	engine       *tasks.ImportEngine
	paths        []string
	opts         tasks.UploadOpts
	width        int
	height       int
	bookList     list.Model
	books        []services.Book
	progressChan chan tasks.ProgressUpdate
	uploadDone   chan uploadCompleteMsg
	progress     tasks.ProgressUpdate
	result       *tasks.UploadRunResult
	err          error
	help         help.Model
	keys         keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
// paths is the set of files queued for upload; with no paths the TUI is browse-only.
func NewModel(ctx context.Context, library services.Service, engine *tasks.ImportEngine, paths []string, opts tasks.UploadOpts) *Model {
	return &Model{
		ctx:     ctx,
		view:    BookListView,
		library: library,
		engine:  engine,
		paths:   paths,
		opts:    opts,
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

// Init initializes the TUI by fetching books from the library.
func (m *Model) Init() tea.Cmd {
	return m.fetchBooks()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.bookList.Width() == 0 {
			m.bookList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case BookListView:
			return m.handleBookListKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case booksFetchedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		m.books = msg.books
		items := make([]list.Item, len(msg.books))
		for i, book := range msg.books {
			items[i] = bookItem{book: book}
		}
		m.bookList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.bookList.Title = fmt.Sprintf("%s Library", m.library.Name())
		m.bookList.SetSize(m.width-4, m.height-8)
		return m, nil

	case progressUpdateMsg:
		m.progress = tasks.ProgressUpdate(msg)
		return m, m.waitForProgress()

	case uploadCompleteMsg:
		m.result = msg.result
		m.err = msg.err
		m.view = ResultView
		m.progressChan = nil
		return m, nil
	}

	return m.updateLists(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view != ResultView {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case BookListView:
		return m.renderBookList()
	case ConfirmView:
		return m.renderConfirm()
	case UploadView:
		return m.renderUpload()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handleBookListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "u":
		if len(m.paths) > 0 {
			m.view = ConfirmView
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.bookList, cmd = m.bookList.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "n", "esc":
		m.view = BookListView
		return m, nil
	case "y":
		m.view = UploadView
		return m, m.startUpload()
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "r":
		m.view = BookListView
		m.result = nil
		m.err = nil
		return m, m.fetchBooks()
	}
	return m, nil
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if m.view == BookListView {
		m.bookList, cmd = m.bookList.Update(msg)
	}
	return m, cmd
}

func (m *Model) fetchBooks() tea.Cmd {
	return func() tea.Msg {
		books, err := m.library.GetBooks(m.ctx, services.ListOptions{})
		return booksFetchedMsg{books: books, err: err}
	}
}

func (m *Model) startUpload() tea.Cmd {
	m.progressChan = make(chan tasks.ProgressUpdate, 50)
	done := make(chan uploadCompleteMsg, 1)

	go func(progress chan tasks.ProgressUpdate) {
		result, err := m.engine.Run(m.ctx, progress, m.paths, m.opts)
		done <- uploadCompleteMsg{result: result, err: err}
		close(progress)
	}(m.progressChan)

	m.uploadDone = done
	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	progress := m.progressChan
	done := m.uploadDone

	return func() tea.Msg {
		if progress == nil {
			msg := <-done
			return msg
		}

		select {
		case update, ok := <-progress:
			if !ok {
				return <-done
			}
			return progressUpdateMsg(update)
		case msg := <-done:
			return msg
		}
	}
}

func (m *Model) renderBookList() string {
	helpKeys := []key.Binding{m.keys.quit}
	if len(m.paths) > 0 {
		helpKeys = append([]key.Binding{m.keys.upload}, helpKeys...)
	}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.bookList.View(), helpView)
}

func (m *Model) renderConfirm() string {
	title := styles.title.Render(fmt.Sprintf("Upload %d file(s) to %s?", len(m.paths), m.library.Name()))

	files := ""
	for _, path := range m.paths {
		files += fmt.Sprintf("  %s\n", filepath.Base(path))
	}

	helpKeys := []key.Binding{m.keys.yes, m.keys.no, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n%s", title, files, helpView)
}

func (m *Model) renderUpload() string {
	title := styles.title.Render("Uploading Books")

	var phase string
	switch m.progress.Phase {
	case tasks.UploadFile:
		phase = fmt.Sprintf("Uploading files (%d/%d)", m.progress.Step, m.progress.Total)
	case tasks.PollTask:
		phase = fmt.Sprintf("Waiting for import task (%d/%d)", m.progress.Step, m.progress.Total)
	case tasks.FileImported, tasks.FileFailed:
		phase = fmt.Sprintf("Finished %d/%d", m.progress.Step, m.progress.Total)
	default:
		phase = "Processing..."
	}

	return fmt.Sprintf("%s\n\n%s\n%s", title, phase, m.progress.Message)
}

func (m *Model) renderResult() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Upload failed: %v\n\nPress r to return, q to quit", m.err))
	}

	if m.result == nil {
		return styles.err.Render("No result available\n\nPress r to return, q to quit")
	}

	title := styles.ok.Render("✓ Upload Complete!")
	info := fmt.Sprintf(
		"\nFiles: %d\nImported: %d\nFailed: %d\nNew books: %d",
		m.result.TotalFiles,
		m.result.Succeeded,
		m.result.Failed,
		len(m.result.BookIDs),
	)

	var failed string
	if m.result.Failed > 0 {
		failed = fmt.Sprintf("\n\n%s", styles.warn.Render(fmt.Sprintf("Failed to import %d file(s):", m.result.Failed)))
		for _, res := range m.result.Results {
			if res.Err != nil {
				failed += fmt.Sprintf("\n  • %s: %s", filepath.Base(res.Path), res.Message)
			}
		}
	}

	helpKeys := []key.Binding{m.keys.restart, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s%s\n\n%s", title, info, failed, helpView)
}
