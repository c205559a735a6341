// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// libraryCommand handles read operations against the remote library
func libraryCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "library",
		Aliases: []string{"lib"},
		Usage:   "Browse the remote library",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List books in the library",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of books to return",
						Value: 50,
					},
					&cli.IntFlag{
						Name:  "offset",
						Usage: "Number of books to skip",
					},
					&cli.StringFlag{
						Name:  "sort",
						Usage: "Sort order (title, author, added)",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
					},
					&cli.BoolFlag{
						Name:  "cache",
						Usage: "Refresh the local cache with the fetched books",
					},
				},
				Action: r.LibraryList,
			},
			{
				Name:  "show",
				Usage: "Show a single book",
				Flags: []cli.Flag{
					&cli.Int64Flag{
						Name:     "id",
						Usage:    "Book ID to show",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.LibraryShow,
			},
			{
				Name:  "search",
				Usage: "Full-text search across the library",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "query",
					},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
					},
				},
				Action: r.LibrarySearch,
			},
			{
				Name:  "download",
				Usage: "Download a book file",
				Flags: []cli.Flag{
					&cli.Int64Flag{
						Name:     "id",
						Usage:    "Book ID to download",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "format",
						Usage:    "File format to download (epub, pdf, mobi, ...)",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path",
					},
				},
				Action: r.LibraryDownload,
			},
			{
				Name:  "cached",
				Usage: "List books from the local cache (works offline)",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "author",
						Usage: "Filter by author",
					},
					&cli.StringFlag{
						Name:  "series",
						Usage: "Filter by series",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.LibraryCached,
			},
		},
	}
}

// shelfCommand handles shelf CRUD and export operations
func shelfCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "shelf",
		Usage: "Manage shelves on the library server",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List shelves",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
					},
				},
				Action: r.ShelfList,
			},
			{
				Name:  "create",
				Usage: "Create a new shelf",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "name",
					},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "public",
						Usage: "Make the shelf public",
					},
				},
				Action: r.ShelfCreate,
			},
			{
				Name:  "add",
				Usage: "Add a book to a shelf",
				Flags: []cli.Flag{
					&cli.Int64Flag{
						Name:     "shelf",
						Usage:    "Shelf ID",
						Required: true,
					},
					&cli.Int64Flag{
						Name:     "book",
						Usage:    "Book ID",
						Required: true,
					},
				},
				Action: r.ShelfAdd,
			},
			{
				Name:  "remove",
				Usage: "Remove a book from a shelf",
				Flags: []cli.Flag{
					&cli.Int64Flag{
						Name:     "shelf",
						Usage:    "Shelf ID",
						Required: true,
					},
					&cli.Int64Flag{
						Name:     "book",
						Usage:    "Book ID",
						Required: true,
					},
				},
				Action: r.ShelfRemove,
			},
			{
				Name:  "export",
				Usage: "Export a shelf and its books to CSV, Markdown, or text",
				Flags: []cli.Flag{
					&cli.Int64Flag{
						Name:     "id",
						Usage:    "Shelf ID to export",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "format",
						Usage: "Export format (csv, markdown, text)",
						Value: "csv",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file or directory path",
					},
					&cli.StringFlag{
						Name:  "cover-url",
						Usage: "Cover image URL for Markdown exports",
					},
				},
				Action: r.ShelfExport,
			},
		},
	}
}

// uploadCommand handles the upload workflow and import history
func uploadCommand(r *Runner) *cli.Command {
	uploadFlags := []cli.Flag{
		&cli.IntFlag{
			Name:  "workers",
			Usage: "Concurrent uploads (overrides config)",
		},
		&cli.FloatFlag{
			Name:  "rate",
			Usage: "Maximum uploads started per second (overrides config)",
		},
		&cli.IntFlag{
			Name:  "poll-interval",
			Usage: "Milliseconds between task status checks (overrides config)",
		},
		&cli.IntFlag{
			Name:  "max-attempts",
			Usage: "Maximum status checks per task (overrides config)",
		},
	}

	return &cli.Command{
		Name:    "upload",
		Aliases: []string{"up"},
		Usage:   "Upload books to the library server",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Upload one or more book files, waiting for server-side imports",
				Arguments: []cli.Argument{
					&cli.StringArgs{
						Name: "paths",
						Max:  -1,
					},
				},
				Flags:  uploadFlags,
				Action: r.UploadRun,
			},
			{
				Name:  "convert",
				Usage: "Convert a book to another format, waiting for the conversion task",
				Flags: append([]cli.Flag{
					&cli.Int64Flag{
						Name:     "id",
						Usage:    "Book ID to convert",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "format",
						Usage:    "Target format (epub, pdf, mobi, ...)",
						Required: true,
					},
				}, uploadFlags...),
				Action: r.UploadConvert,
			},
			{
				Name:  "history",
				Usage: "Show recorded import outcomes from the local database",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "batch",
						Usage: "Show records for a single batch ID",
					},
					&cli.StringFlag{
						Name:  "status",
						Usage: "Filter by status (pending, polling, succeeded, failed)",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.UploadHistory,
			},
		},
	}
}

// apiCommand handles direct API calls to the library server
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct API calls to the library server",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Direct GET to the library server, prints raw JSON",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
						Value: true,
					},
				},
				Action: r.APIGet,
			},
			{
				Name:  "post",
				Usage: "Direct POST with JSON body",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "JSON body to send",
						Required: true,
					},
				},
				Action: r.APIPost,
			},
			{
				Name:  "dump",
				Usage: "Full server state dump (books, shelves, tasks, settings)",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
					&cli.BoolFlag{
						Name:  "save",
						Usage: "Save dump to api_dump.json",
						Value: false,
					},
				},
				Action: r.APIDump,
			},
		},
	}
}

// setupCommand handles setup operations for the local database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "database",
				Usage: "Initialize the local cache database and run migrations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupDatabase,
			},
		},
	}
}

// authCommand handles authentication against the library server
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage authentication",
		Commands: []*cli.Command{
			{
				Name:  "import",
				Usage: "Extract session headers from a browser cURL command",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "curl",
						Usage: "cURL command from browser DevTools (Copy as cURL)",
					},
					&cli.StringFlag{
						Name:  "curl-file",
						Usage: "Path to .sh file containing cURL command",
					},
					&cli.StringFlag{
						Name:  "output",
						Usage: "Output path for headers.json (default: ~/.shelfctl/headers.json)",
					},
				},
				Action: r.AuthImport,
			},
			{
				Name:  "login",
				Usage: "Authenticate with the library's OAuth provider",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:   "status",
				Usage:  "Check current authentication state (calls /api/health)",
				Action: r.AuthStatus,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for interactive library browsing and uploads.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch interactive TUI for browsing and uploading books",
		Arguments: []cli.Argument{
			&cli.StringArgs{
				Name: "paths",
				Max:  -1,
			},
		},
		Action: r.TUI,
	}
}
