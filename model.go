package waveplot

import "math"

// ExpTerm is one exponential term Coeff * e^(Rate * t).
type ExpTerm struct {
	Coeff float64
	Rate  float64
}

// ExpModel is a closed-form step response: Offset plus a sum of exponential
// terms. The two RC network nodes compared by this tool are second order, so
// their models carry two terms each, but nothing here depends on that.
type ExpModel struct {
	Offset float64
	Terms  []ExpTerm
}

// At evaluates the model at time t.
func (m ExpModel) At(t float64) float64 {
	v := m.Offset
	for _, term := range m.Terms {
		v += term.Coeff * math.Exp(term.Rate*t)
	}
	return v
}

// Curve evaluates the model over a time grid, producing a Table in the same
// normalized schema the importers emit.
func (m ExpModel) Curve(grid []float64) Table {
	rows := make([]Row, len(grid))
	for i, t := range grid {
		rows[i] = Row{Time: t, Voltage: m.At(t)}
	}
	return Table{Rows: rows}
}

// TimeGrid returns start, start+step, ... up to but excluding stop.
func TimeGrid(start, stop, step float64) []float64 {
	n := int(math.Ceil((stop - start) / step))
	if n < 0 {
		n = 0
	}

	grid := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		grid = append(grid, start+float64(i)*step)
	}
	return grid
}
