// Package entity defines the animal record shown in the list and the raw
// record shape it is parsed from.
package entity

import (
	"fmt"
	"strings"
)

// UnknownDescription is used when a record carries no description.
const UnknownDescription = "-unknown animal-"

// Entity is one animal in the collection.
//
// ID is assigned at load time and never changes. Starred and Winner are the
// only fields mutated after load, and only through the store.
type Entity struct {
	ID          int
	Name        string
	Description string
	Category    string
	Age         int
	Starred     bool
	Winner      bool
}

// Record is a raw record as delivered by a data source.
//
// Fullname is the composite "name filler description category" string.
// Name, Desc and Type are accepted as explicit fields when Fullname is empty.
type Record struct {
	ID       int    `json:"id,omitempty"`
	Fullname string `json:"fullname,omitempty"`
	Name     string `json:"name,omitempty"`
	Desc     string `json:"desc,omitempty"`
	Type     string `json:"type,omitempty"`
	Age      *int   `json:"age"`
}

// MalformedRecordError reports a record that could not be turned into an Entity.
type MalformedRecordError struct {
	Index  int // position in the loaded sequence, 0-based
	Reason string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed record %d: %s", e.Index, e.Reason)
}

// Parse converts a raw record into an Entity with the given id.
// index is the record's position and is only used for error reporting.
func Parse(rec Record, id, index int) (Entity, error) {
	malformed := func(format string, args ...any) error {
		return &MalformedRecordError{Index: index, Reason: fmt.Sprintf(format, args...)}
	}

	e := Entity{ID: id, Description: UnknownDescription}

	if full := strings.TrimSpace(rec.Fullname); full != "" {
		tokens := strings.Fields(full)
		if len(tokens) < 4 {
			return Entity{}, malformed("fullname %q has %d tokens, want 4", full, len(tokens))
		}
		e.Name = tokens[0]
		e.Description = tokens[2]
		e.Category = tokens[3]
	} else {
		e.Name = strings.TrimSpace(rec.Name)
		e.Category = strings.TrimSpace(rec.Type)
		if desc := strings.TrimSpace(rec.Desc); desc != "" {
			e.Description = desc
		}
	}

	if e.Name == "" {
		return Entity{}, malformed("missing name")
	}
	if e.Category == "" {
		return Entity{}, malformed("missing type")
	}
	if rec.Age == nil {
		return Entity{}, malformed("missing age")
	}
	if *rec.Age < 0 {
		return Entity{}, malformed("negative age %d", *rec.Age)
	}
	e.Age = *rec.Age

	return e, nil
}

// IntPtr is a convenience for building records in code.
func IntPtr(v int) *int {
	return &v
}
