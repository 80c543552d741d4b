package waveplot

import (
	"bytes"
	"fmt"
	"os"

	"golang.org/x/image/colornames"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// FigureOptions controls the rendered figure: its pixel size and the visible
// time window shared by every panel.
type FigureOptions struct {
	Width  vg.Length
	Height vg.Length

	XMin float64
	XMax float64

	XLabel string
	YLabel string
}

// FigureOptions derives the render options from a run configuration.
func (c Config) FigureOptions() FigureOptions {
	return FigureOptions{
		Width:  vg.Points(c.FigureWidth),
		Height: vg.Points(c.FigureHeight),
		XMin:   c.XMin,
		XMax:   c.XMax,
		XLabel: "Tempo (s)",
		YLabel: "Tensão (V)",
	}
}

// panelPlot builds one subplot: every series of the comparison on a shared
// axis, with the legend identifying each.
func panelPlot(comparison ChannelComparison, opts FigureOptions) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = comparison.Title
	p.X.Label.Text = opts.XLabel
	p.Y.Label.Text = opts.YLabel
	p.X.Min = opts.XMin
	p.X.Max = opts.XMax
	p.Legend.Top = true

	for _, series := range comparison.Series {
		if err := addSeries(p, series); err != nil {
			return nil, fmt.Errorf("unable to add series %s: %w", series.Label, err)
		}
	}

	return p, nil
}

var dottedDashes = []vg.Length{vg.Points(1), vg.Points(2)}

// addSeries draws one series in its fixed style: dotted red with star-like
// markers for the simulator, dotted blue line for the oscilloscope, dotted
// green with cross markers for the analytical curve.
func addSeries(p *plot.Plot, series Series) error {
	points := make(plotter.XYs, series.Data.Len())
	for i := range points {
		points[i].X, points[i].Y = series.Data.XY(i)
	}

	switch series.Kind {
	case KindScope:
		line, err := plotter.NewLine(points)
		if err != nil {
			return err
		}
		line.Color = colornames.Blue
		line.Dashes = dottedDashes
		p.Add(line)
		p.Legend.Add(series.Label, line)

	case KindSimulator:
		line, markers, err := plotter.NewLinePoints(points)
		if err != nil {
			return err
		}
		line.Color = colornames.Red
		line.Dashes = dottedDashes
		markers.Color = colornames.Red
		markers.Shape = draw.CrossGlyph{}
		markers.Radius = vg.Points(2)
		p.Add(line, markers)
		p.Legend.Add(series.Label, line, markers)

	case KindAnalytic:
		line, markers, err := plotter.NewLinePoints(points)
		if err != nil {
			return err
		}
		line.Color = colornames.Green
		line.Dashes = dottedDashes
		markers.Color = colornames.Green
		markers.Shape = draw.PlusGlyph{}
		markers.Radius = vg.Points(2)
		p.Add(line, markers)
		p.Legend.Add(series.Label, line, markers)

	default:
		return fmt.Errorf("unknown series kind %d", series.Kind)
	}

	return nil
}

// RenderFigure renders the comparisons as vertically stacked panels and
// returns the encoded PNG.
func RenderFigure(comparisons []ChannelComparison, opts FigureOptions) ([]byte, error) {
	if len(comparisons) == 0 {
		return nil, fmt.Errorf("nothing to render")
	}

	plots := make([][]*plot.Plot, len(comparisons))
	for i, comparison := range comparisons {
		p, err := panelPlot(comparison, opts)
		if err != nil {
			return nil, fmt.Errorf("unable to build panel %s: %w", comparison.Name, err)
		}
		plots[i] = []*plot.Plot{p}
	}

	img := vgimg.New(opts.Width, opts.Height)
	dc := draw.New(img)

	tiles := draw.Tiles{
		Rows: len(comparisons),
		Cols: 1,
		PadY: vg.Millimeter * 2,
	}

	canvases := plot.Align(plots, tiles, dc)
	for i := range plots {
		plots[i][0].Draw(canvases[i][0])
	}

	var buf bytes.Buffer
	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("unable to encode figure: %w", err)
	}

	return buf.Bytes(), nil
}

// WriteFigure renders the comparisons and writes the PNG to path.
func WriteFigure(path string, comparisons []ChannelComparison, opts FigureOptions) error {
	data, err := RenderFigure(comparisons, opts)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o644)
}
