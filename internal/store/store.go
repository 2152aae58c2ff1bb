// Package store holds the canonical animal collection.
//
// Store is the only component that mutates entity fields. Callers receive
// copies; every setter copies the stored row, edits it and re-inserts it in
// a write transaction, so snapshots handed out earlier never change.
package store

import (
	"errors"
	"fmt"
	"slices"

	"github.com/abelbrown/animalbase/internal/entity"
	"github.com/hashicorp/go-memdb"
)

const table = "animal"

// ErrNotFound is returned when an id does not exist in the store.
var ErrNotFound = errors.New("entity not found")

// row is the memdb object. Seq preserves insertion order.
type row struct {
	entity.Entity
	Seq int
}

// LoadSummary describes the outcome of Load.
type LoadSummary struct {
	Loaded  int
	Skipped int
	Errors  []error // one *entity.MalformedRecordError per skipped record
}

// Store is the entity store. NOT an interface - concrete type.
// It is not safe for concurrent mutation; the controller drives it from a
// single goroutine.
type Store struct {
	db     *memdb.MemDB
	loaded bool
}

func schema() *memdb.DBSchema {
	return &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			table: {
				Name: table,
				Indexes: map[string]*memdb.IndexSchema{
					"id": {
						Name:    "id",
						Unique:  true,
						Indexer: &memdb.IntFieldIndex{Field: "ID"},
					},
					"seq": {
						Name:    "seq",
						Unique:  true,
						Indexer: &memdb.IntFieldIndex{Field: "Seq"},
					},
					"category": {
						Name:    "category",
						Indexer: &memdb.StringFieldIndex{Field: "Category"},
					},
					"winner": {
						Name:    "winner",
						Indexer: &memdb.BoolFieldIndex{Field: "Winner"},
					},
				},
			},
		},
	}
}

// New creates an empty, unloaded store.
func New() (*Store, error) {
	db, err := memdb.NewMemDB(schema())
	if err != nil {
		return nil, fmt.Errorf("create memdb: %w", err)
	}
	return &Store{db: db}, nil
}

// Load replaces the whole collection with the parsed records.
//
// Malformed records are skipped and reported in the summary; the load never
// aborts because of them. A record with a positive explicit ID keeps it; two
// records claiming the same explicit ID make the later one malformed. Every
// other record takes its 1-based position as id, or the next unused id when
// an explicit ID already claimed that position.
func (s *Store) Load(records []entity.Record) (LoadSummary, error) {
	db, err := memdb.NewMemDB(schema())
	if err != nil {
		return LoadSummary{}, fmt.Errorf("create memdb: %w", err)
	}

	var summary LoadSummary
	parsed := make([]*entity.Entity, len(records))
	used := make(map[int]bool)

	// Explicit ids are reserved before any positional id is handed out.
	for i, rec := range records {
		e, err := entity.Parse(rec, rec.ID, i)
		if err != nil {
			summary.Skipped++
			summary.Errors = append(summary.Errors, err)
			continue
		}
		if rec.ID > 0 {
			if used[rec.ID] {
				summary.Skipped++
				summary.Errors = append(summary.Errors, &entity.MalformedRecordError{
					Index:  i,
					Reason: fmt.Sprintf("duplicate id %d", rec.ID),
				})
				continue
			}
			used[rec.ID] = true
		}
		parsed[i] = &e
	}

	next := 1
	for i, e := range parsed {
		if e == nil || records[i].ID > 0 {
			continue
		}
		id := i + 1
		if used[id] {
			for used[next] {
				next++
			}
			id = next
		}
		used[id] = true
		e.ID = id
	}

	txn := db.Txn(true)
	defer txn.Abort()

	for i, e := range parsed {
		if e == nil {
			continue
		}
		if err := txn.Insert(table, &row{Entity: *e, Seq: i}); err != nil {
			return LoadSummary{}, fmt.Errorf("insert id %d: %w", e.ID, err)
		}
		summary.Loaded++
	}

	txn.Commit()
	s.db = db
	s.loaded = true
	return summary, nil
}

// Loaded reports whether Load has completed at least once.
func (s *Store) Loaded() bool {
	return s.loaded
}

// Len returns the number of entities.
func (s *Store) Len() int {
	return len(s.rows())
}

// All returns a snapshot of every entity in insertion order.
func (s *Store) All() []entity.Entity {
	rows := s.rows()
	slices.SortFunc(rows, func(a, b *row) int { return a.Seq - b.Seq })
	return entities(rows)
}

// Get returns the entity with the given id.
func (s *Store) Get(id int) (entity.Entity, error) {
	txn := s.db.Txn(false)
	r, err := first(txn, id)
	if err != nil {
		return entity.Entity{}, err
	}
	return r.Entity, nil
}

// Winners returns the current winners ordered by id.
func (s *Store) Winners() []entity.Entity {
	rows := scan(s.db.Txn(false), "winner", true)
	slices.SortFunc(rows, func(a, b *row) int { return a.ID - b.ID })
	return entities(rows)
}

// Categories returns the distinct categories in first-seen order.
func (s *Store) Categories() []string {
	var out []string
	seen := make(map[string]bool)
	for _, e := range s.All() {
		if !seen[e.Category] {
			seen[e.Category] = true
			out = append(out, e.Category)
		}
	}
	return out
}

// SetStar sets the starred flag. It has no other side effects.
func (s *Store) SetStar(id int, value bool) error {
	return s.update(id, func(e *entity.Entity) { e.Starred = value })
}

// SetWinner sets the winner flag. It does not enforce the winner rules;
// the arbiter calls it once a decision is final.
func (s *Store) SetWinner(id int, value bool) error {
	return s.update(id, func(e *entity.Entity) { e.Winner = value })
}

func (s *Store) update(id int, fn func(*entity.Entity)) error {
	txn := s.db.Txn(true)
	defer txn.Abort()

	r, err := first(txn, id)
	if err != nil {
		return err
	}

	updated := *r
	fn(&updated.Entity)
	if err := txn.Insert(table, &updated); err != nil {
		return fmt.Errorf("update id %d: %w", id, err)
	}
	txn.Commit()
	return nil
}

func (s *Store) rows() []*row {
	return scan(s.db.Txn(false), "id")
}

// scan returns every row matching the index query. txn.Get only fails for
// a table or index missing from the schema, so an error is a programming
// mistake and panics.
func scan(txn *memdb.Txn, index string, args ...interface{}) []*row {
	it, err := txn.Get(table, index, args...)
	if err != nil {
		panic(fmt.Sprintf("store: scan %s.%s: %v", table, index, err))
	}
	var rows []*row
	for obj := it.Next(); obj != nil; obj = it.Next() {
		rows = append(rows, obj.(*row))
	}
	return rows
}

func first(txn *memdb.Txn, id int) (*row, error) {
	obj, err := txn.First(table, "id", id)
	if err != nil {
		return nil, fmt.Errorf("lookup id %d: %w", id, err)
	}
	if obj == nil {
		return nil, fmt.Errorf("id %d: %w", id, ErrNotFound)
	}
	return obj.(*row), nil
}

func entities(rows []*row) []entity.Entity {
	out := make([]entity.Entity, len(rows))
	for i, r := range rows {
		out[i] = r.Entity
	}
	return out
}
