// Package projection computes the visible list from a snapshot of entities.
// All functions are pure: []Entity in, []Entity out. Inputs are never mutated.
package projection

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/abelbrown/animalbase/internal/entity"
)

// FilterAll is the filter value that keeps every entity.
const FilterAll = "all"

// Field names a sortable entity field.
type Field string

const (
	FieldName        Field = "name"
	FieldDescription Field = "description"
	FieldCategory    Field = "category"
	FieldAge         Field = "age"
)

// Fields lists the sortable fields in display order.
var Fields = []Field{FieldName, FieldDescription, FieldCategory, FieldAge}

// ParseField maps a field name to a Field. "desc" and "type" are accepted
// as aliases for description and category.
func ParseField(s string) (Field, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "name":
		return FieldName, nil
	case "description", "desc":
		return FieldDescription, nil
	case "category", "type":
		return FieldCategory, nil
	case "age":
		return FieldAge, nil
	}
	return "", fmt.Errorf("unknown sort field %q", s)
}

// Direction is the sort direction.
type Direction int

const (
	Ascending Direction = iota
	Descending
)

// Flip returns the opposite direction.
func (d Direction) Flip() Direction {
	if d == Descending {
		return Ascending
	}
	return Descending
}

func (d Direction) String() string {
	if d == Descending {
		return "desc"
	}
	return "asc"
}

// ParseDirection accepts "asc"/"ascending" and "desc"/"descending".
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "asc", "ascending":
		return Ascending, nil
	case "desc", "descending":
		return Descending, nil
	}
	return Ascending, fmt.Errorf("unknown sort direction %q", s)
}

// Settings are the user's current view settings.
type Settings struct {
	FilterBy  string
	SortBy    Field
	Direction Direction
}

// DefaultSettings shows everything sorted by name, ascending.
func DefaultSettings() Settings {
	return Settings{FilterBy: FilterAll, SortBy: FieldName, Direction: Ascending}
}

// View is a projected, ordered list ready for rendering.
type View struct {
	Entities []entity.Entity
	Settings Settings
	Total    int // size of the unfiltered collection
}

// Filter keeps entities whose category equals filterBy.
//
// "all" and "" keep everything. A value that matches no category also keeps
// everything, so a typo never produces an empty list.
func Filter(entities []entity.Entity, filterBy string) []entity.Entity {
	result := make([]entity.Entity, 0, len(entities))
	if ActiveFilter(entities, filterBy) == FilterAll {
		return append(result, entities...)
	}

	for _, e := range entities {
		if e.Category == filterBy {
			result = append(result, e)
		}
	}
	return result
}

// ActiveFilter returns the filter Filter applies for filterBy: filterBy
// itself when some entity has that category, FilterAll otherwise.
func ActiveFilter(entities []entity.Entity, filterBy string) string {
	if filterBy == "" || filterBy == FilterAll {
		return FilterAll
	}
	for _, e := range entities {
		if e.Category == filterBy {
			return filterBy
		}
	}
	return FilterAll
}

// Sort returns a new slice stably ordered by field.
//
// Descending flips the sign of the comparison rather than reversing the
// output, so entities with equal keys keep their input order either way.
// An unknown field returns a copy in input order.
func Sort(entities []entity.Entity, field Field, dir Direction) []entity.Entity {
	result := slices.Clone(entities)
	if result == nil {
		result = []entity.Entity{}
	}

	compare := comparator(field)
	if compare == nil {
		return result
	}

	slices.SortStableFunc(result, func(a, b entity.Entity) int {
		c := compare(a, b)
		if dir == Descending {
			return -c
		}
		return c
	})
	return result
}

// Project filters then sorts. The returned Settings carry the filter that
// was actually applied.
func Project(entities []entity.Entity, s Settings) View {
	s.FilterBy = ActiveFilter(entities, s.FilterBy)
	return View{
		Entities: Sort(Filter(entities, s.FilterBy), s.SortBy, s.Direction),
		Settings: s,
		Total:    len(entities),
	}
}

// comparator returns the comparison for a field. Strings compare by code
// point (Go's byte-wise UTF-8 order), numbers by value.
func comparator(field Field) func(a, b entity.Entity) int {
	switch field {
	case FieldName:
		return func(a, b entity.Entity) int { return strings.Compare(a.Name, b.Name) }
	case FieldDescription:
		return func(a, b entity.Entity) int { return strings.Compare(a.Description, b.Description) }
	case FieldCategory:
		return func(a, b entity.Entity) int { return strings.Compare(a.Category, b.Category) }
	case FieldAge:
		return func(a, b entity.Entity) int { return cmp.Compare(a.Age, b.Age) }
	}
	return nil
}
