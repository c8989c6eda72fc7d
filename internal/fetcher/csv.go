package fetcher

import (
	"context"
	"encoding/csv"
	"io"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
)

// CSVOptions configures the CSV decoder.
type CSVOptions struct {
	Delimiter rune // default ','
	Comment   rune // 0 disables comment lines
}

// DecodeCSV streams typed rows from CSV data. Columns map to fields of T by
// its csv struct tags; columns with no matching field are ignored and
// missing columns leave the field zero. The first row is the header.
// Decoding stops at the first malformed row. Both channels close when the
// stream ends.
func DecodeCSV[T any](ctx context.Context, r io.Reader, opts CSVOptions) (<-chan T, <-chan error) {
	outCh := make(chan T, 64)
	errCh := make(chan error, 1)

	go func() {
		defer close(outCh)
		defer close(errCh)

		reader := csv.NewReader(r)
		if opts.Delimiter != 0 {
			reader.Comma = opts.Delimiter
		}
		if opts.Comment != 0 {
			reader.Comment = opts.Comment
		}
		reader.LazyQuotes = true

		dec, err := csvutil.NewDecoder(reader)
		if err != nil {
			if err == io.EOF {
				return
			}
			errCh <- eris.Wrap(err, "csv: read header")
			return
		}

		for {
			if ctx.Err() != nil {
				errCh <- eris.Wrap(ctx.Err(), "csv: context cancelled")
				return
			}

			var row T
			if err := dec.Decode(&row); err != nil {
				if err == io.EOF {
					return
				}
				errCh <- eris.Wrap(err, "csv: decode row")
				return
			}

			select {
			case outCh <- row:
			case <-ctx.Done():
				errCh <- eris.Wrap(ctx.Err(), "csv: context cancelled")
				return
			}
		}
	}()

	return outCh, errCh
}
