// Package audit records service token issuance on the local machine.
//
// Every successful create or update appends one JSON Lines entry to the
// configured audit log (by default $XDG_DATA_HOME/tokensmith/audit.jsonl):
//
//	{"ts":"2026-10-18T09:12:03.120000Z","client_id":"...","op":"create","name":"ci-bot","workspace_id":"ws-1","scopes_count":1,"expiry":"never"}
//
// Entries carry names, ids and counts only. Keys, tokens and ciphertexts are
// never written.
//
// ReadEntries loads the trail for tokensmith log; malformed lines are skipped.
//
// # Failure Handling
//
// Audit logging is best-effort. If logging fails (permissions, disk full,
// etc.), the issuance still succeeds.
package audit
