// Package http provides HTTP handlers and middleware for the swim team
// scheduler API.
//
// The router exposes the following endpoints:
//   - GET /members, POST /members, PUT /members/{id}, DELETE /members/{id}:
//     roster management endpoints exchanging the `memberDTO` payload defined
//     in member_handler.go.
//   - POST /rotation/generate: tiles fresh duty windows from a start date,
//     retiring any previously active windows from that date onward.
//   - POST /rotation/set-from-date: re-anchors the rotation so a chosen
//     member holds the window starting on the given date.
//   - GET /rotation/leader?date=YYYY-MM-DD: resolves the duty leader for a
//     date (today when omitted).
//   - GET /rotation/assignments: lists duty windows; `from`, `to` and
//     `include_inactive=true` narrow or widen the result.
//   - GET /sessions?date=YYYY-MM-DD or ?month=YYYY-MM, POST /sessions,
//     GET/PUT/DELETE /sessions/{id}: training session endpoints exchanging
//     the `sessionDTO` payload defined in session_handler.go. Creating a
//     recurring session returns the stored template plus its materialized
//     occurrences.
//   - GET /calendar.ics: subscribable iCalendar feed of active duty windows
//     and upcoming sessions.
//   - GET /health: liveness plus storage reachability.
//
// Request/response DTOs live alongside their respective handlers so tests and
// documentation share the same ground truth.
package http
