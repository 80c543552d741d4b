package waveplot

// PanelInfo describes one figure panel to websocket clients.
type PanelInfo struct {
	Name   string
	Title  string
	Series []string
}

// Metadata is served as JSON on /metadata and inside the METADATA wire
// message so clients know what the series ids in the stream refer to. Series
// ids are assigned in panel order, then series order within the panel.
type Metadata struct {
	XLabel string
	YLabel string
	XMin   float64
	XMax   float64
	Panels []PanelInfo
}

// FigureMetadata summarizes the composed comparisons for clients.
func FigureMetadata(comparisons []ChannelComparison, opts FigureOptions) Metadata {
	meta := Metadata{
		XLabel: opts.XLabel,
		YLabel: opts.YLabel,
		XMin:   opts.XMin,
		XMax:   opts.XMax,
	}

	for _, comparison := range comparisons {
		panel := PanelInfo{
			Name:  comparison.Name,
			Title: comparison.Title,
		}
		for _, series := range comparison.Series {
			panel.Series = append(panel.Series, series.Label)
		}
		meta.Panels = append(meta.Panels, panel)
	}

	return meta
}
