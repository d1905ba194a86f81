package search

import (
	"fmt"
	"io"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Record is the raw text of one vCard. Name identifies the record in
// diagnostics, e.g. the path of the address object it was read from.
type Record struct {
	Name string
	Data []byte
}

// Walker searches a sequence of records, writing rows to Output.
type Walker struct {
	Matcher *Matcher
	Output  io.Writer
	Logger  *zap.Logger
}

// Walk searches each record in order and returns the number of rows written.
//
// A record that can't be searched is reported and skipped; the failures are
// combined into the returned error after the remaining records have been
// processed. Errors writing to Output stop the walk immediately.
func (w *Walker) Walk(records []Record) (int, error) {
	logger := w.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var errs error
	total := 0
	for i, rec := range records {
		rows, err := w.Matcher.Rows(NewCard(rec.Data))
		if err != nil {
			logger.Warn("skipping record",
				zap.Int("index", i),
				zap.String("name", rec.Name),
				zap.Error(err))
			errs = multierr.Append(errs, &RecordError{Index: i, Name: rec.Name, Err: err})
			continue
		}

		n, err := writeRows(w.Output, rows)
		total += n
		if err != nil {
			return total, multierr.Append(errs, fmt.Errorf("search: writing rows: %w", err))
		}
		logger.Debug("searched record",
			zap.Int("index", i),
			zap.String("name", rec.Name),
			zap.Int("rows", n))
	}
	return total, errs
}
