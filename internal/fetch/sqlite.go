package fetch

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/abelbrown/animalbase/internal/entity"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver (no CGO required)
)

// SQLiteSource reads records from the animals table of a SQLite database:
//
//	CREATE TABLE animals (id INTEGER, fullname TEXT, age INTEGER);
//
// Rows are returned in rowid order. The database is opened read-only.
type SQLiteSource struct {
	path string
}

// NewSQLiteSource creates a SQLiteSource for the database at path.
func NewSQLiteSource(path string) *SQLiteSource {
	return &SQLiteSource{path: path}
}

// Name returns the database path.
func (s *SQLiteSource) Name() string {
	return s.path
}

// Fetch reads every row of the animals table.
func (s *SQLiteSource) Fetch(ctx context.Context) ([]entity.Record, error) {
	// sql.Open would silently create a missing database.
	if _, err := os.Stat(s.path); err != nil {
		return nil, fmt.Errorf("stat database: %w", err)
	}

	db, err := sql.Open("sqlite", "file:"+s.path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, `
		SELECT id, fullname, age
		FROM animals
		ORDER BY rowid
	`)
	if err != nil {
		return nil, fmt.Errorf("query animals: %w", err)
	}
	defer rows.Close()

	var records []entity.Record
	for rows.Next() {
		var (
			id       sql.NullInt64
			fullname sql.NullString
			age      sql.NullInt64
		)
		if err := rows.Scan(&id, &fullname, &age); err != nil {
			return nil, fmt.Errorf("scan animal: %w", err)
		}

		rec := entity.Record{Fullname: fullname.String}
		if id.Valid {
			rec.ID = int(id.Int64)
		}
		if age.Valid {
			rec.Age = entity.IntPtr(int(age.Int64))
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read animals: %w", err)
	}
	return records, nil
}
