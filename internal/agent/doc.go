// Package agent decides which assistant persona handles a message.
//
// # Routing
//
// Route is a pure function over the message text, an image flag, and the
// session's previously committed persona:
//
//	next := agent.Route(session.AgentType, text, hasImage)
//
// The rules, in priority order:
//
//  1. An attached image, or the keywords "issue"/"problem", selects the
//     property issue detective.
//  2. The keywords "rent"/"lease"/"tenant" select the tenancy advisor.
//  3. Otherwise the previously committed persona is kept. With no previous
//     persona the result is AgentNone and the caller asks a clarifying
//     question instead.
//
// Keyword matching is case-insensitive substring matching, so "problems"
// and "Tenants" both count.
//
// # Personas
//
// Each persona carries a display name, an introduction used the first time
// it answers, and a continuation used on follow-ups. Lookup returns the
// persona for a committed AgentType.
package agent
