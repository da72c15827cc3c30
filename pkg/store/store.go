// Package store persists chord sheets.
//
// Three backends implement [Store]:
//   - [FileStore]: one JSON record per sheet in a directory (CLI default)
//   - [MongoStore]: a "sheets" collection keyed by sheet ID
//   - [RedisStore]: msgpack-encoded records plus a sorted index of IDs
//
// Every backend stores [sheet.Record] values, so the marker mapping is
// flattened to parallel coordinate lists on save and rebuilt on load.
//
// # Usage
//
//	st, err := store.Open(ctx, store.Options{Backend: store.BackendFile})
//	if err != nil {
//	    return err
//	}
//	defer st.Close()
//
//	s := sheet.New()
//	if err := st.Put(ctx, s); err != nil { // assigns s.ID
//	    return err
//	}
package store

import (
	"context"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/matzehuels/fretsheet/pkg/errors"
	"github.com/matzehuels/fretsheet/pkg/grid"
	"github.com/matzehuels/fretsheet/pkg/sheet"
)

// Store persists sheets.
type Store interface {
	// Get loads a sheet. A missing sheet returns SHEET_NOT_FOUND.
	Get(ctx context.Context, id string) (*sheet.Sheet, error)

	// List returns summaries of all sheets, most recently updated first.
	List(ctx context.Context) ([]Summary, error)

	// Put creates or replaces a sheet. An empty ID is assigned a new one,
	// and UpdatedAt is set to the save time.
	Put(ctx context.Context, s *sheet.Sheet) error

	// Delete removes a sheet. A missing sheet returns SHEET_NOT_FOUND.
	Delete(ctx context.Context, id string) error

	// Close releases backend resources.
	Close() error
}

// Summary is the list view of a stored sheet.
type Summary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Grid      string    `json:"grid"`
	Diagrams  int       `json:"diagrams"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func summarize(rec sheet.Record) Summary {
	cfg := grid.Config{Rows: rec.GridRows, Cols: rec.GridCols, Class: grid.DiagramTypeClass(rec.GridType)}
	return Summary{
		ID:        rec.ID,
		Title:     rec.Title,
		Grid:      grid.Selection(cfg),
		Diagrams:  len(rec.Diagrams),
		UpdatedAt: rec.UpdatedAt,
	}
}

// prepare assigns an ID and timestamp and returns the record to write.
func prepare(s *sheet.Sheet) (sheet.Record, error) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if err := errors.ValidateSheetID(s.ID); err != nil {
		return sheet.Record{}, err
	}
	s.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)
	return sheet.ToRecord(s), nil
}

func notFound(id string) error {
	return errors.New(errors.ErrCodeSheetNotFound, "sheet %q not found", id)
}

// Duplicate stores a copy of sheet id under a new ID with fresh diagram IDs.
// An empty title becomes "Copy of <original title>", cut to the title limit.
func Duplicate(ctx context.Context, st Store, id, title string) (*sheet.Sheet, error) {
	orig, err := st.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	dup := orig.Clone()
	dup.ID = ""
	if title == "" {
		title = copyTitle(orig.Title)
	}
	if err := dup.SetTitle(title); err != nil {
		return nil, err
	}
	for i := range dup.Diagrams {
		dup.Diagrams[i].ID = uuid.NewString()
	}

	if err := st.Put(ctx, dup); err != nil {
		return nil, err
	}
	return dup, nil
}

// copyTitle prefixes title with "Copy of ", dropping trailing runes until
// the result fits errors.MaxTitleLength.
func copyTitle(title string) string {
	out := "Copy of " + title
	for len(out) > errors.MaxTitleLength {
		_, size := utf8.DecodeLastRuneInString(out)
		out = out[:len(out)-size]
	}
	return out
}

// Backend names a store implementation.
type Backend string

const (
	BackendFile  Backend = "file"
	BackendMongo Backend = "mongo"
	BackendRedis Backend = "redis"
)

// Options selects and configures a backend.
type Options struct {
	Backend Backend

	// Dir is the FileStore directory. Empty means ~/.config/fretsheet/sheets.
	Dir string

	MongoURI      string
	MongoDatabase string

	RedisAddr string
}

// Open connects to the configured backend.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case "", BackendFile:
		return NewFileStore(opts.Dir)
	case BackendMongo:
		return NewMongoStore(ctx, opts.MongoURI, opts.MongoDatabase)
	case BackendRedis:
		return NewRedisStore(ctx, opts.RedisAddr)
	}
	return nil, errors.New(errors.ErrCodeUnsupported, "unknown store backend %q", opts.Backend)
}
