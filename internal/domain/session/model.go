package session

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ID is a store-assigned primary key. Document stores hand out opaque hex
// strings; relational and in-memory stores hand out serial integers.
type ID struct {
	value  string
	serial bool
}

// DocumentID wraps an opaque document identifier.
func DocumentID(hex string) ID {
	return ID{value: hex}
}

// SerialID wraps a relational serial identifier.
func SerialID(n int64) ID {
	return ID{value: strconv.FormatInt(n, 10), serial: true}
}

// String returns the canonical textual form of the id.
func (id ID) String() string {
	return id.value
}

// IsZero reports whether the id was never assigned.
func (id ID) IsZero() bool {
	return id.value == ""
}

// Serial returns the integer value of a serial id.
func (id ID) Serial() (int64, bool) {
	if !id.serial {
		return 0, false
	}
	n, err := strconv.ParseInt(id.value, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// MarshalJSON emits serial ids as numbers and document ids as strings.
func (id ID) MarshalJSON() ([]byte, error) {
	if id.IsZero() {
		return []byte("null"), nil
	}
	if id.serial {
		return []byte(id.value), nil
	}
	return json.Marshal(id.value)
}

// UnmarshalJSON accepts either a JSON number (serial) or a JSON string (document).
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*id = ID{}
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = DocumentID(s)
		return nil
	default:
		n, err := strconv.ParseInt(string(data), 10, 64)
		if err != nil {
			return fmt.Errorf("invalid session id %s: %w", data, err)
		}
		*id = SerialID(n)
		return nil
	}
}

// Person is a speaker record attached to a session.
type Person struct {
	Name        string `json:"name"`
	LinkedInURL string `json:"linkedin_url"`
}

// Session is the canonical, backend-independent shape of one conference talk.
type Session struct {
	ID                ID       `json:"_id"`
	WebsiteIndex      int64    `json:"website_index"`
	Title             string   `json:"title"`
	Date              string   `json:"date"`
	Time              string   `json:"time"`
	Venue             string   `json:"venue"`
	Room              string   `json:"room"`
	Speakers          string   `json:"speakers"`
	Description       string   `json:"description"`
	KnowledgePartners string   `json:"knowledge_partners"`
	WatchLiveLink     string   `json:"watch_live_link"`
	Transcript        string   `json:"transcript"`
	People            []Person `json:"people"`
}

// Page is one slice of a filtered, ordered listing.
type Page struct {
	Sessions []Session
	Total    int64
	Page     int
	Limit    int
}
