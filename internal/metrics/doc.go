// Package metrics records resolution events and analyzes them.
//
// An event is one JSON object:
//
//	{"id": "...", "timestamp": "...", "event_type": "step_not_found",
//	 "details": {...}, "ai_decision": {}, "user_feedback": {}}
//
// Events go to a Sink. Two sinks exist:
//   - JSONLSink appends one event per line to a file (the long-standing
//     metrics.jsonl format, readable with ReadJSONL)
//   - Store keeps events in SQLite
//
// # SQLite configuration
//
//   - WAL mode: readers do not block the writer
//   - synchronous=NORMAL
//   - busy_timeout=5000
//   - schema versioned through PRAGMA user_version
//
// Events are ordered by insertion sequence, never by timestamp.
package metrics
