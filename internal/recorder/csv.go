package recorder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gocarina/gocsv"
	"go.uber.org/zap"

	"TickSentinel/internal/model"
)

// csvRow is the column layout of the per-instrument files.
type csvRow struct {
	Time    string  `csv:"Time"`
	Symbol  string  `csv:"Symbol"`
	Ask     float64 `csv:"Ask"`
	Bid     float64 `csv:"Bid"`
	Epoch   int64   `csv:"Epoch"`
	PipSize float64 `csv:"Pip_Size"`
	Open    float64 `csv:"Open"`
	Price   float64 `csv:"Price"`
	High    float64 `csv:"High"`
	Low     float64 `csv:"Low"`
	Close   float64 `csv:"Close"`
}

func toRow(rec model.Record) csvRow {
	return csvRow{
		Time:    rec.FormattedTime(),
		Symbol:  rec.Symbol,
		Ask:     rec.Ask,
		Bid:     rec.Bid,
		Epoch:   rec.Epoch,
		PipSize: rec.PipSize,
		Open:    rec.Open,
		Price:   rec.Price,
		High:    rec.High,
		Low:     rec.Low,
		Close:   rec.Close,
	}
}

// CSVRecorder appends records to one CSV file per instrument under Dir.
// The header is written only when a file is created empty.
type CSVRecorder struct {
	Dir   string
	log   *zap.Logger
	mu    sync.Mutex
	files map[string]*os.File
}

// NewCSVRecorder creates the output directory if needed.
func NewCSVRecorder(dir string, logger *zap.Logger) (*CSVRecorder, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create csv dir: %w", err)
	}
	logger.Info("csv recorder opened", zap.String("dir", dir))
	return &CSVRecorder{Dir: dir, log: logger, files: make(map[string]*os.File)}, nil
}

// FilePath returns the file records for symbol are appended to.
func (r *CSVRecorder) FilePath(symbol string) string {
	return filepath.Join(r.Dir, symbol+"_live_data.csv")
}

func (r *CSVRecorder) Append(_ context.Context, symbol string, rec model.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, fresh, err := r.file(symbol)
	if err != nil {
		return err
	}
	rows := []csvRow{toRow(rec)}
	if fresh {
		err = gocsv.Marshal(rows, f)
	} else {
		err = gocsv.MarshalWithoutHeaders(rows, f)
	}
	if err != nil {
		// reopen on the next append; the handle may be stale
		f.Close()
		delete(r.files, symbol)
		return fmt.Errorf("write %s: %w", f.Name(), err)
	}
	return nil
}

// file returns the open handle for symbol and whether it is still empty.
func (r *CSVRecorder) file(symbol string) (*os.File, bool, error) {
	if f, ok := r.files[symbol]; ok {
		return f, false, nil
	}
	path := r.FilePath(symbol)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, false, fmt.Errorf("open %s: %w", path, err)
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, false, fmt.Errorf("stat %s: %w", path, err)
	}
	r.files[symbol] = f
	return f, st.Size() == 0, nil
}

func (r *CSVRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var first error
	for s, f := range r.files {
		if err := f.Close(); err != nil && first == nil {
			first = err
		}
		delete(r.files, s)
	}
	r.log.Info("csv recorder closed")
	return first
}

// ReadCSVFile loads every record from a file written by CSVRecorder.
func ReadCSVFile(path string) ([]model.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var rows []csvRow
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	out := make([]model.Record, 0, len(rows))
	for _, row := range rows {
		ts, err := time.ParseInLocation(model.TimeLayout, row.Time, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("parse time %q: %w", row.Time, err)
		}
		out = append(out, model.Record{
			Symbol:  row.Symbol,
			Epoch:   ts.Unix(),
			Price:   row.Price,
			Open:    row.Open,
			High:    row.High,
			Low:     row.Low,
			Close:   row.Close,
			Ask:     row.Ask,
			Bid:     row.Bid,
			PipSize: row.PipSize,
		})
	}
	return out, nil
}
