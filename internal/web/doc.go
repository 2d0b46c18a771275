// Package web exposes the chat core over a JSON HTTP API.
//
// Session CRUD, selection, and message dispatch map to REST-ish endpoints
// under /api/sessions. Repository mutations are additionally streamed to
// browsers as server-sent events on /api/events so the UI re-renders
// without polling. Assistant message bodies are rendered from markdown to
// HTML at read time; the stored content stays plain.
package web
