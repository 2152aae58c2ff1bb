// Package fetch retrieves raw animal records from the configured data sources.
//
// Sources are read once at startup. A fetch does NOT load the store - the
// caller decides what to do with the records.
package fetch

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/abelbrown/animalbase/internal/entity"
	"golang.org/x/sync/errgroup"
)

// Source kinds accepted by NewSource.
const (
	KindAuto   = "auto"
	KindFile   = "file"
	KindHTTP   = "http"
	KindSQLite = "sqlite"
)

// Source produces raw records.
type Source interface {
	// Name identifies the source in logs and errors.
	Name() string

	// Fetch returns the source's records in source order.
	Fetch(ctx context.Context) ([]entity.Record, error)
}

// Options tune the network sources.
type Options struct {
	Timeout       time.Duration // per-request HTTP timeout
	Attempts      int           // HTTP attempts before giving up
	RetryInterval time.Duration // minimum spacing between HTTP attempts
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{
		Timeout:       30 * time.Second,
		Attempts:      3,
		RetryInterval: time.Second,
	}
}

// NewSource builds a Source for location. kind "auto" (or "") infers the
// kind: http(s) URLs are HTTP, .db/.sqlite/.sqlite3 files are SQLite, and
// everything else is a JSON file.
func NewSource(kind, location string, opts Options) (Source, error) {
	if location == "" {
		return nil, fmt.Errorf("source location is empty")
	}
	if kind == "" || kind == KindAuto {
		kind = inferKind(location)
	}

	switch kind {
	case KindFile:
		return NewFileSource(location), nil
	case KindHTTP:
		return NewHTTPSource(location, opts), nil
	case KindSQLite:
		return NewSQLiteSource(location), nil
	}
	return nil, fmt.Errorf("unknown source kind %q", kind)
}

func inferKind(location string) string {
	if u, err := url.Parse(location); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		return KindHTTP
	}
	switch strings.ToLower(filepath.Ext(location)) {
	case ".db", ".sqlite", ".sqlite3":
		return KindSQLite
	}
	return KindFile
}

// FetchAll fetches every source in parallel and concatenates the records in
// argument order. The first failure cancels the rest and is returned.
func FetchAll(ctx context.Context, sources ...Source) ([]entity.Record, error) {
	results := make([][]entity.Record, len(sources))

	g, ctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		g.Go(func() error {
			records, err := src.Fetch(ctx)
			if err != nil {
				return fmt.Errorf("fetch %s: %w", src.Name(), err)
			}
			results[i] = records
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []entity.Record
	for _, records := range results {
		all = append(all, records...)
	}
	return all, nil
}
