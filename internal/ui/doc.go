// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for browsing the library and uploading books:
//  1. [BookListView] : Browse the library's books
//  2. [ConfirmView] : Confirm a batch upload of selected files
//  3. [UploadView] : Monitor real-time progress updates
//  4. [ResultView] : Display per-file outcomes and imported book ids
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving typed messages per event.
// Progress updates flow through a channel from the ImportEngine, providing non-blocking status reporting during uploads.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
