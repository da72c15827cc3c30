package pipeline

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"
	"time"

	"github.com/matzehuels/fretsheet/pkg/cache"
	"github.com/matzehuels/fretsheet/pkg/errors"
	"github.com/matzehuels/fretsheet/pkg/sheet"
	"github.com/matzehuels/fretsheet/pkg/store"
)

// maxRecordSize bounds record files read from disk or stdin.
const maxRecordSize = 8 << 20

// Load resolves ref to a sheet. A ref ending in ".json", or "-" for stdin, is
// read as a sheet record; anything else is a sheet ID looked up in st.
func Load(ctx context.Context, st store.Store, ref string) (*sheet.Sheet, error) {
	switch {
	case ref == "-":
		return ReadRecord(os.Stdin)
	case strings.HasSuffix(strings.ToLower(ref), ".json"):
		if err := errors.ValidatePath(ref); err != nil {
			return nil, err
		}
		f, err := os.Open(ref)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeNotFound, err, "open %s", ref)
		}
		defer f.Close()
		return ReadRecord(f)
	}
	if st == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no store configured to look up sheet %q", ref)
	}
	return st.Get(ctx, ref)
}

// ReadRecord decodes a JSON sheet record.
func ReadRecord(r io.Reader) (*sheet.Sheet, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxRecordSize+1))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "read sheet record")
	}
	if len(data) > maxRecordSize {
		return nil, errors.New(errors.ErrCodeInvalidInput, "sheet record exceeds %d bytes", maxRecordSize)
	}
	var rec sheet.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode sheet record")
	}
	return sheet.FromRecord(rec)
}

// SheetHash is the content hash of a sheet's persisted record. The save
// timestamp is left out so re-saving an unchanged sheet keeps its cache
// entries.
func SheetHash(s *sheet.Sheet) (string, error) {
	rec := sheet.ToRecord(s)
	rec.UpdatedAt = time.Time{}
	data, err := json.Marshal(rec)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "encode sheet record")
	}
	return cache.Hash(data), nil
}
