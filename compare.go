package waveplot

import (
	"context"

	"github.com/sirupsen/logrus"
)

// SeriesKind selects the fixed style a series is drawn with.
type SeriesKind int

const (
	KindSimulator SeriesKind = iota
	KindScope
	KindAnalytic
)

// Series is one named curve on a panel.
type Series struct {
	Label string
	Kind  SeriesKind
	Data  Table
}

// ChannelComparison is one panel of the figure: up to three series (the
// simulator trace, the oscilloscope trace and the analytical curve) for one
// measured node.
type ChannelComparison struct {
	Name   string
	Title  string
	Series []Series
}

// Series display labels, as on the original lab report.
const (
	LabelSimulator = "Simulador"
	LabelScope     = "Osciloscópio"
	LabelAnalytic  = "Analítico"
)

// BuildComparison loads both measurement files for one channel and evaluates
// its analytical model over the grid. A source that fails to import is logged
// once and left off the panel; the remaining series still render, so a
// missing file degrades the figure instead of crashing the run.
func BuildComparison(ctx context.Context, cfg ChannelConfig, grid []float64) ChannelComparison {
	logger := logrus.WithFields(logrus.Fields{
		"tag":     "BuildComparison",
		"channel": cfg.Name,
	})

	comparison := ChannelComparison{
		Name:  cfg.Name,
		Title: cfg.Title,
	}

	simulator, err := LoadSimulatorCSV(ctx, cfg.SimulatorPath)
	if err != nil {
		logger.WithError(err).Warn("skipping simulator series")
	} else {
		comparison.Series = append(comparison.Series, Series{
			Label: LabelSimulator,
			Kind:  KindSimulator,
			Data:  simulator,
		})
	}

	scope, meta, err := LoadScopeCSV(ctx, cfg.ScopePath)
	if err != nil {
		logger.WithError(err).Warn("skipping oscilloscope series")
	} else {
		logger.WithField("params", len(meta)).Debug("oscilloscope metadata")
		comparison.Series = append(comparison.Series, Series{
			Label: LabelScope,
			Kind:  KindScope,
			Data:  scope,
		})
	}

	comparison.Series = append(comparison.Series, Series{
		Label: LabelAnalytic,
		Kind:  KindAnalytic,
		Data:  cfg.Model.Curve(grid),
	})

	return comparison
}

// BuildComparisons runs BuildComparison for every configured channel.
func BuildComparisons(ctx context.Context, cfg Config) []ChannelComparison {
	grid := cfg.TimeGrid()

	comparisons := make([]ChannelComparison, 0, len(cfg.Channels))
	for _, channel := range cfg.Channels {
		comparisons = append(comparisons, BuildComparison(ctx, channel, grid))
	}
	return comparisons
}
