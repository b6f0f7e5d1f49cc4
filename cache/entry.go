package cache

import (
	"encoding/json"
	"fmt"
	"time"
)

// Entry is the envelope byte-oriented backends persist so the write time
// survives the round trip.
type Entry struct {
	Data      []byte    `json:"data"`
	StoredAt  time.Time `json:"stored_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewEntry stamps value with now and the expiry implied by ttl.
func NewEntry(value []byte, now time.Time, ttl time.Duration) Entry {
	return Entry{Data: value, StoredAt: now, ExpiresAt: now.Add(ttl)}
}

// Expired reports whether the entry is no longer valid at now.
func (e Entry) Expired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}

func EncodeEntry(e Entry) ([]byte, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("cache: encode entry: %w", err)
	}
	return b, nil
}

func DecodeEntry(b []byte) (Entry, error) {
	var e Entry
	if err := json.Unmarshal(b, &e); err != nil {
		return Entry{}, fmt.Errorf("cache: decode entry: %w", err)
	}
	return e, nil
}
