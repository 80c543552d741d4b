package waveplot

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// The import pipeline starts with an io.Reader over the raw instrument
// export. A DelimitedStringReader splits it into fields, a RowReader decodes
// the fields into time/voltage rows, and readTable accumulates the rows into
// a Table that the renderer and the broadcaster consume.

var errIgnoreThisRow = errors.New("ignore this row")

// When Read is called, return an array of strings which are the fields of
// the next non-blank line.
type StringReader interface {
	Read(context.Context) ([]string, error)
}

// Splits each input line on a fixed separator. The oscilloscope writes
// semicolon-separated lines, the simulator writes tab-separated lines; both
// use a comma as the decimal separator, which is handled by the RowReader,
// not here.
type DelimitedStringReader struct {
	scanner   *bufio.Scanner
	separator string

	lineCount int
}

// NewScopeStringReader reads an oscilloscope export (semicolon-separated).
func NewScopeStringReader(input io.Reader) *DelimitedStringReader {
	return &DelimitedStringReader{
		scanner:   bufio.NewScanner(input),
		separator: ";",
	}
}

// NewSimulatorStringReader reads a simulator transient export (tab-separated).
func NewSimulatorStringReader(input io.Reader) *DelimitedStringReader {
	return &DelimitedStringReader{
		scanner:   bufio.NewScanner(input),
		separator: "\t",
	}
}

func (r *DelimitedStringReader) Read(ctx context.Context) ([]string, error) {
	for {
		stillHasData := r.scanner.Scan()
		if !stillHasData {
			if err := r.scanner.Err(); err != nil {
				logrus.WithFields(logrus.Fields{
					"tag":     "DelimitedString",
					"lineNum": r.lineCount,
				}).WithError(err).Error("unable to read line")
				return nil, err
			}

			return nil, io.EOF
		}

		r.lineCount++

		line := r.scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		fields := strings.Split(line, r.separator)

		// The instruments commonly terminate each line with the separator;
		// drop the trailing empty fields that produces so the payload stays
		// the last two fields.
		for len(fields) > 0 && strings.TrimSpace(fields[len(fields)-1]) == "" {
			fields = fields[:len(fields)-1]
		}

		return fields, nil
	}
}

// DecimalCommaFloat parses a number that uses a comma as the decimal
// separator ("1,23" -> 1.23). Plain decimal points are accepted too since
// the simulator occasionally emits them for exact integers.
func DecimalCommaFloat(s string) (float64, error) {
	return strconv.ParseFloat(strings.Replace(strings.TrimSpace(s), ",", ".", 1), 64)
}

// FileLayout describes how the fields of one export dialect map onto the
// normalized (time, voltage) schema. The payload is always the last two
// fields of a line; everything before it is instrument prelude.
type FileLayout struct {
	// The number of leading fields that form a (parameter, value) metadata
	// pair. Zero when the dialect has no metadata prelude.
	MetadataColumns int

	// The minimum number of fields a line must have to be considered for
	// decoding. Shorter lines are skipped.
	MinColumns int

	// If set, lines whose field count differs from MinColumns are skipped
	// instead of merely requiring at least MinColumns.
	ExactColumns bool
}

// ScopeLayout matches the oscilloscope export: two metadata fields, at least
// one more prelude field, then the time/voltage payload.
var ScopeLayout = FileLayout{MetadataColumns: 2, MinColumns: 3}

// SimulatorLayout matches the simulator export: exactly time and voltage.
var SimulatorLayout = FileLayout{MinColumns: 2, ExactColumns: true}

// A single normalized sample.
type Row struct {
	Time    float64
	Voltage float64
}

// Decodes field lines into Rows according to a FileLayout. Lines whose
// payload does not decode as numbers (header lines, truncated lines) are
// skipped and logged via warnings. Metadata pairs found along the way are
// accumulated and can be retrieved with Metadata once the stream is
// exhausted.
type RowReader struct {
	Input  StringReader
	Layout FileLayout

	meta ScopeMetadata
}

func (r *RowReader) Read(ctx context.Context) (Row, error) {
	fields, err := r.Input.Read(ctx)
	if err != nil {
		return Row{}, err
	}

	logger := logrus.WithFields(logrus.Fields{
		"tag":    "RowReader",
		"fields": fields,
	})

	if r.Layout.MetadataColumns > 0 && len(fields) >= r.Layout.MetadataColumns {
		param := strings.TrimSpace(fields[0])
		value := strings.TrimSpace(fields[1])
		if param != "" && value != "" {
			r.meta = append(r.meta, ScopeParam{Param: param, Value: value})
		}
	}

	if len(fields) < r.Layout.MinColumns {
		logger.Warnf("expected at least %d fields, got %d, ignoring...", r.Layout.MinColumns, len(fields))
		return Row{}, errIgnoreThisRow
	}

	if r.Layout.ExactColumns && len(fields) != r.Layout.MinColumns {
		logger.Warnf("expected exactly %d fields, got %d, ignoring...", r.Layout.MinColumns, len(fields))
		return Row{}, errIgnoreThisRow
	}

	timeValue, err := DecimalCommaFloat(fields[len(fields)-2])
	if err != nil {
		logger.Warn("cannot parse time field, ignoring...")
		return Row{}, errIgnoreThisRow
	}

	voltageValue, err := DecimalCommaFloat(fields[len(fields)-1])
	if err != nil {
		logger.Warn("cannot parse voltage field, ignoring...")
		return Row{}, errIgnoreThisRow
	}

	return Row{Time: timeValue, Voltage: voltageValue}, nil
}

// Metadata returns the (parameter, value) pairs seen so far. Only meaningful
// for layouts with MetadataColumns > 0; pairs with an empty cell are
// dropped.
func (r *RowReader) Metadata() ScopeMetadata {
	return r.meta
}
