// Package web implements an HTMX-based web application mirroring the TUI functionality.
//
// # HTMX Web Application Implementation Plan
//
// # Architecture
//
// The web app replicates the TUI's browse-and-upload workflow using server-side
// rendering with HTMX for dynamic updates. Each view corresponds to a template
// and handler:
//
//  1. Book List: Server-rendered table with hx-get for book detail
//  2. Book Detail: HTMX partial swap showing formats + download links
//  3. Upload Form: Multi-file picker with hx-post trigger
//  4. Progress Monitor: SSE (Server-Sent Events) streaming progress updates
//  5. Results Display: Final status with imported/failed files breakdown
//
// Core Components
//
//   - HTTP Server: net/http server with html/template rendering
//   - Service Integration: Uses same services.Service and tasks.ImportEngine as TUI
//   - Session Management: Cookie-based sessions for OAuth state and user tracking
//   - SSE Handler: Streams real-time progress during uploads
//
// Routes
//
//	GET  /                   → Book list view (requires auth)
//	GET  /auth/login         → OAuth initiation
//	GET  /auth/callback      → OAuth completion
//	GET  /books/{id}         → HTMX partial: book detail
//	POST /upload             → Start batch upload, return SSE endpoint
//	GET  /upload/{id}/stream → SSE progress stream
//	GET  /upload/{id}/result → Final result view
//
// Templates
//
//   - base.html: Layout with navigation, auth status
//   - books.html: Table with hx-get on rows
//   - detail.html: Partial template for book detail
//   - progress.html: SSE consumer with progress bar
//   - results.html: Success/failure breakdown
//
// # State Management
//
// Unlike the TUI's in-memory state, the web app persists state in:
//   - Session cookies: Authentication tokens, user ID
//   - ImportRecord rows: Upload progress across requests
//   - In-memory channels: SSE connections for active uploads
//
// # Progress Streaming
//
// Upload progress uses Server-Sent Events:
//  1. POST /upload creates a batch of ImportRecords, returns the batch ID
//  2. Client opens SSE connection to /upload/{id}/stream
//  3. Handler launches goroutine running ImportEngine.Run
//  4. Progress channel updates stream as SSE events
//  5. On completion, send "done" event with redirect URL
//
// Authentication Flow
//
//  1. User visits /, redirected to /auth/login if not authenticated
//  2. OAuth dance stores tokens in session
//  3. Session middleware validates tokens on protected routes
//  4. Expired tokens trigger reauthorization flow
//
// Dependencies
//
//   - html/template: Server-side rendering
//   - net/http: HTTP server and SSE
//   - gorilla/sessions or similar: Cookie management
//
// Implementation Tasks
//
//  1. HTTP server setup with route registration
//  2. Template structure with HTMX integration
//  3. Session middleware for auth state
//  4. Book list handler with service integration
//  5. Book detail handler (HTMX partial)
//  6. Upload endpoint creating ImportRecords
//  7. SSE handler streaming progress updates
//  8. Result handler displaying batch outcome
//  9. OAuth handlers wrapping the existing login flow
//  10. Error handling and validation
//
// # Testing Strategy
//
// Use httptest:
//   - Mock services.Service for book/shelf data
//   - Mock tasks.ImportEngine for uploads
//   - Validate HTMX headers and response structure
//   - Test SSE stream formatting
package web
