package waveplot

import (
	"context"
	"fmt"
	"io"
	"os"
)

// Table is the normalized measurement table: ordered (time, voltage) samples
// in file order. It is built once by an importer and never mutated.
type Table struct {
	Rows []Row
}

// Len and XY make Table usable directly as a gonum/plot XYer.
func (t Table) Len() int {
	return len(t.Rows)
}

func (t Table) XY(i int) (x, y float64) {
	return t.Rows[i].Time, t.Rows[i].Voltage
}

// One instrument setting recovered from the oscilloscope file prelude, e.g.
// ("Record Length", "2500").
type ScopeParam struct {
	Param string
	Value string
}

type ScopeMetadata []ScopeParam

// readTable drains a StringReader through a RowReader, accumulating the
// decoded rows. Skipped rows have already been logged by the RowReader; any
// other error aborts the read.
func readTable(ctx context.Context, input StringReader, layout FileLayout) (Table, ScopeMetadata, error) {
	reader := &RowReader{Input: input, Layout: layout}

	var table Table
	for {
		row, err := reader.Read(ctx)
		if err == errIgnoreThisRow {
			continue
		} else if err == io.EOF {
			return table, reader.Metadata(), nil
		} else if err != nil {
			return Table{}, nil, err
		}

		table.Rows = append(table.Rows, row)
	}
}

// LoadScopeCSV imports an oscilloscope export: semicolon-separated fields,
// comma as the decimal separator, a two-field (parameter, value) metadata
// prelude and at least one more prelude field before the time/voltage
// payload. The metadata is returned alongside the table; callers that only
// want the waveform can discard it.
func LoadScopeCSV(ctx context.Context, path string) (Table, ScopeMetadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return Table{}, nil, fmt.Errorf("unable to open oscilloscope file: %w", err)
	}
	defer f.Close()

	table, meta, err := readTable(ctx, NewScopeStringReader(f), ScopeLayout)
	if err != nil {
		return Table{}, nil, fmt.Errorf("unable to read oscilloscope file %s: %w", path, err)
	}

	return table, meta, nil
}

// LoadSimulatorCSV imports a simulator transient export: tab-separated,
// comma as the decimal separator, exactly two fields per line.
func LoadSimulatorCSV(ctx context.Context, path string) (Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return Table{}, fmt.Errorf("unable to open simulator file: %w", err)
	}
	defer f.Close()

	table, _, err := readTable(ctx, NewSimulatorStringReader(f), SimulatorLayout)
	if err != nil {
		return Table{}, fmt.Errorf("unable to read simulator file %s: %w", path, err)
	}

	return table, nil
}
