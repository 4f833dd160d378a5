// Package auditlog implements the append-only ticket audit trail: the
// entry model, a structured value type for change payloads, and the text
// codec used to persist the trail on the ticket row.
package auditlog

import (
	"encoding/json"
	"time"
)

// Action tags the kind of change an entry records. The set is open; these
// are the tags the service emits.
const (
	ActionTicketCreated = "ticket_created"
	ActionTicketUpdated = "ticket_updated"
	ActionTicketClosed  = "ticket_closed"
)

// Entry is an immutable, timestamped record of one action taken on a ticket.
type Entry struct {
	Timestamp string `json:"timestamp"`
	Actor     string `json:"actor"`
	Action    string `json:"action"`
	Details   Value  `json:"details"`
}

// NewEntry stamps an entry with the current UTC time.
func NewEntry(actor, action string, details Value) Entry {
	return Entry{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Actor:     actor,
		Action:    action,
		Details:   details,
	}
}

// Encode serializes entries to the text blob stored on the ticket row.
func Encode(entries []Entry) (string, error) {
	if entries == nil {
		entries = []Entry{}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Decode parses a stored blob back into entries. Corrupt, legacy or absent
// blobs yield an empty trail; the read path never fails on bad log data.
func Decode(blob string) []Entry {
	if blob == "" {
		return []Entry{}
	}
	var entries []Entry
	if err := json.Unmarshal([]byte(blob), &entries); err != nil {
		return []Entry{}
	}
	if entries == nil {
		return []Entry{}
	}
	return entries
}
