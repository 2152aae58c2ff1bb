package fetch

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/abelbrown/animalbase/internal/entity"
)

const animalsJSON = `[
  {"fullname": "Mandu the amazing cat", "age": 10},
  {"fullname": "Leelo the fluffy dog", "age": 3},
  {"id": 42, "name": "Toothless", "type": "dragon", "age": 14}
]`

func fastOptions() Options {
	return Options{Timeout: 5 * time.Second, Attempts: 3, RetryInterval: time.Millisecond}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestFileSourceFetch(t *testing.T) {
	path := writeFile(t, "animals.json", animalsJSON)

	records, err := NewFileSource(path).Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	if records[0].Fullname != "Mandu the amazing cat" || records[0].Age == nil || *records[0].Age != 10 {
		t.Errorf("unexpected first record: %+v", records[0])
	}
	if records[2].ID != 42 || records[2].Type != "dragon" {
		t.Errorf("unexpected explicit record: %+v", records[2])
	}
}

func TestFileSourceMissingAge(t *testing.T) {
	path := writeFile(t, "animals.json", `[{"fullname": "Mandu the amazing cat"}]`)

	records, err := NewFileSource(path).Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if records[0].Age != nil {
		t.Errorf("expected nil age, got %d", *records[0].Age)
	}
}

func TestFileSourceErrors(t *testing.T) {
	if _, err := NewFileSource(filepath.Join(t.TempDir(), "nope.json")).Fetch(context.Background()); err == nil {
		t.Error("expected error for missing file")
	}

	path := writeFile(t, "bad.json", `{"not": "an array"}`)
	if _, err := NewFileSource(path).Fetch(context.Background()); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestHTTPSourceFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(animalsJSON))
	}))
	defer server.Close()

	records, err := NewHTTPSource(server.URL, fastOptions()).Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(records) != 3 {
		t.Errorf("expected 3 records, got %d", len(records))
	}
}

func TestHTTPSourceRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(animalsJSON))
	}))
	defer server.Close()

	records, err := NewHTTPSource(server.URL, fastOptions()).Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(records) != 3 {
		t.Errorf("expected 3 records, got %d", len(records))
	}
	if calls.Load() != 3 {
		t.Errorf("expected 3 calls, got %d", calls.Load())
	}
}

func TestHTTPSourceGivesUp(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	if _, err := NewHTTPSource(server.URL, fastOptions()).Fetch(context.Background()); err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	if calls.Load() != 3 {
		t.Errorf("expected 3 calls, got %d", calls.Load())
	}
}

func TestHTTPSourceDoesNotRetryNotFound(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}))
	defer server.Close()

	_, err := NewHTTPSource(server.URL, fastOptions()).Fetch(context.Background())
	if !errors.Is(err, errPermanent) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("expected 1 call, got %d", calls.Load())
	}
}

func TestHTTPSourceRejectsOversizedBody(t *testing.T) {
	saved := maxBodySize
	maxBodySize = 16
	defer func() { maxBodySize = saved }()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(animalsJSON))
	}))
	defer server.Close()

	_, err := NewHTTPSource(server.URL, fastOptions()).Fetch(context.Background())
	if !errors.Is(err, errPermanent) {
		t.Fatalf("expected permanent error for oversized body, got %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("expected 1 call, got %d", calls.Load())
	}
}

func TestHTTPSourceAcceptsBodyAtLimit(t *testing.T) {
	saved := maxBodySize
	maxBodySize = int64(len(animalsJSON))
	defer func() { maxBodySize = saved }()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(animalsJSON))
	}))
	defer server.Close()

	records, err := NewHTTPSource(server.URL, fastOptions()).Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(records) != 3 {
		t.Errorf("expected 3 records, got %d", len(records))
	}
}

func createAnimalsDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "animals.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	_, err = db.Exec(`
		CREATE TABLE animals (id INTEGER, fullname TEXT, age INTEGER);
		INSERT INTO animals (id, fullname, age) VALUES
			(NULL, 'Mandu the amazing cat', 10),
			(7, 'Leelo the fluffy dog', 3),
			(NULL, 'Broken', NULL);
	`)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	return path
}

func TestSQLiteSourceFetch(t *testing.T) {
	path := createAnimalsDB(t)

	records, err := NewSQLiteSource(path).Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	if records[0].ID != 0 || records[0].Fullname != "Mandu the amazing cat" || *records[0].Age != 10 {
		t.Errorf("unexpected first record: %+v", records[0])
	}
	if records[1].ID != 7 {
		t.Errorf("expected explicit id 7, got %d", records[1].ID)
	}
	if records[2].Age != nil {
		t.Errorf("expected NULL age to stay nil")
	}
}

func TestSQLiteSourceMissingDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.db")
	if _, err := NewSQLiteSource(path).Fetch(context.Background()); err == nil {
		t.Fatal("expected error for missing database")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("Fetch must not create the database")
	}
}

type stubSource struct {
	name    string
	records []entity.Record
	err     error
	delay   time.Duration
}

func (s stubSource) Name() string { return s.name }

func (s stubSource) Fetch(ctx context.Context) ([]entity.Record, error) {
	select {
	case <-time.After(s.delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return s.records, s.err
}

func TestFetchAllKeepsSourceOrder(t *testing.T) {
	a := stubSource{name: "a", records: []entity.Record{{Fullname: "A the x cat"}}, delay: 20 * time.Millisecond}
	b := stubSource{name: "b", records: []entity.Record{{Fullname: "B the x dog"}, {Fullname: "C the x dog"}}}

	records, err := FetchAll(context.Background(), a, b)
	if err != nil {
		t.Fatalf("FetchAll failed: %v", err)
	}
	want := []string{"A the x cat", "B the x dog", "C the x dog"}
	if len(records) != len(want) {
		t.Fatalf("expected %d records, got %d", len(want), len(records))
	}
	for i, w := range want {
		if records[i].Fullname != w {
			t.Errorf("record %d: expected %q, got %q", i, w, records[i].Fullname)
		}
	}
}

func TestFetchAllFails(t *testing.T) {
	boom := errors.New("boom")
	ok := stubSource{name: "ok", delay: time.Second}
	bad := stubSource{name: "bad", err: boom}

	_, err := FetchAll(context.Background(), ok, bad)
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestNewSource(t *testing.T) {
	tests := []struct {
		kind, location string
		want           any
	}{
		{"", "https://example.com/animals.json", &HTTPSource{}},
		{KindAuto, "data/animals.db", &SQLiteSource{}},
		{KindAuto, "animals.sqlite3", &SQLiteSource{}},
		{"", "animals.json", &FileSource{}},
		{KindFile, "https://example.com/animals.json", &FileSource{}},
	}
	for _, tt := range tests {
		src, err := NewSource(tt.kind, tt.location, fastOptions())
		if err != nil {
			t.Fatalf("NewSource(%q, %q) failed: %v", tt.kind, tt.location, err)
		}
		switch tt.want.(type) {
		case *HTTPSource:
			if _, ok := src.(*HTTPSource); !ok {
				t.Errorf("%q: expected HTTPSource, got %T", tt.location, src)
			}
		case *SQLiteSource:
			if _, ok := src.(*SQLiteSource); !ok {
				t.Errorf("%q: expected SQLiteSource, got %T", tt.location, src)
			}
		case *FileSource:
			if _, ok := src.(*FileSource); !ok {
				t.Errorf("%q: expected FileSource, got %T", tt.location, src)
			}
		}
	}

	if _, err := NewSource("ftp", "x", fastOptions()); err == nil {
		t.Error("expected error for unknown kind")
	}
	if _, err := NewSource("", "", fastOptions()); err == nil {
		t.Error("expected error for empty location")
	}
}
