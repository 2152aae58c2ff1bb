// Package ui provides the Bubble Tea TUI for AnimalBase.
package ui

import "github.com/abelbrown/animalbase/internal/entity"

// RecordsLoaded is sent when the data sources have been fetched.
type RecordsLoaded struct {
	Records []entity.Record
	Err     error
}
