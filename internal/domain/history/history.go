// Package history implements the append-only, capacity-bounded analysis log
// kept per user.
package history

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ecolens/ecolens/internal/domain/model"
)

// MaxEntries bounds a log to the most recent entries; older ones are dropped.
const MaxEntries = 50

// Log is a snapshot of one user's history, newest-first by convention.
// Entries are not guaranteed to be time-ordered on insertion; order-sensitive
// consumers re-sort by AnalyzedAt. Malformed counts records that were
// excluded while decoding because their timestamp could not be parsed.
type Log struct {
	Entries   []model.HistoryEntry
	Malformed int
}

// Append returns a new log with entry prepended and the result truncated to
// MaxEntries. The input log is not mutated.
func Append(l Log, entry model.HistoryEntry) Log {
	entries := make([]model.HistoryEntry, 0, min(len(l.Entries)+1, MaxEntries))
	entries = append(entries, entry)
	if len(l.Entries) > MaxEntries-1 {
		entries = append(entries, l.Entries[:MaxEntries-1]...)
	} else {
		entries = append(entries, l.Entries...)
	}
	return Log{Entries: entries, Malformed: l.Malformed}
}

// Clear returns an empty log.
func Clear() Log {
	return Log{}
}

// rawEntry mirrors the persisted JSON shape with an unparsed timestamp, so a
// single corrupt record cannot fail the whole snapshot.
type rawEntry struct {
	ID         string  `json:"id"`
	Item       string  `json:"item"`
	Score      float64 `json:"score"`
	XPGained   int     `json:"xpGained"`
	AnalyzedAt string  `json:"analyzedAt"`
}

// Decode parses a persisted history snapshot. Entries with unparseable
// timestamps are excluded from Entries and counted in Malformed rather than
// failing the decode; a nil or empty payload yields an empty log.
func Decode(data []byte) (Log, error) {
	if len(data) == 0 {
		return Log{}, nil
	}
	var raw []rawEntry
	if err := json.Unmarshal(data, &raw); err != nil {
		return Log{}, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	l := Log{Entries: make([]model.HistoryEntry, 0, len(raw))}
	for _, r := range raw {
		ts, err := time.Parse(time.RFC3339, r.AnalyzedAt)
		if err != nil {
			l.Malformed++
			continue
		}
		l.Entries = append(l.Entries, model.HistoryEntry{
			ID:         r.ID,
			Item:       r.Item,
			Score:      r.Score,
			XPGained:   r.XPGained,
			AnalyzedAt: ts,
		})
	}
	return l, nil
}

// Encode marshals the log's entries for persistence. Excluded malformed
// entries are gone for good once the snapshot is rewritten.
func Encode(l Log) ([]byte, error) {
	entries := l.Entries
	if entries == nil {
		entries = []model.HistoryEntry{}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return nil, fmt.Errorf("encode history: %w", err)
	}
	return data, nil
}
