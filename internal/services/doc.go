// Package services defines the [Service] interface for library servers and implements it for the JSON API.
//
// # Service Interface
//
// All server interactions go through a common abstraction so the engine, CLI, and TUI
// can be tested against mocks.
//
// # Library Implementation
//
// [LibraryService] talks to the server's JSON API. Non-2xx responses may carry an
// optional {"detail": string} payload which is surfaced through [HTTPError]; a response
// without a detail field produces a generic message.
//
// Authentication is one of:
//   - Session headers captured from the browser via `shelfctl auth import` (headers.json),
//     applied to every request
//   - An OAuth2 bearer token obtained via `shelfctl auth login` ([OAuthFlow])
//
// # Background Tasks
//
// Uploads and conversions may return a task id instead of an immediate result.
// [LibraryService.GetTask] reads GET /tasks/{id}; the polling loop that drives it to a
// terminal state lives in the tasks package.
//
// # Error Handling
//
// Services use typed errors from the shared package:
//   - [shared.ErrMissingCredentials] : Authenticate() called without usable credentials
//   - [shared.ErrNotAuthenticated] : no stored OAuth token
//   - [shared.ErrMalformedResponse] : response body was not the expected JSON shape
//
// # Raw Access
//
// [APIService] performs raw GET/POST passthrough for `shelfctl api` and the
// library dump operation.
package services
