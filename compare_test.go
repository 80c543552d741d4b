package waveplot

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeChannelFiles(t *testing.T) ChannelConfig {
	t.Helper()
	dir := t.TempDir()

	simPath := filepath.Join(dir, "V1.txt")
	if err := os.WriteFile(simPath, []byte("0,0\t0,0\n0,1\t0,35\n"), 0o644); err != nil {
		t.Fatalf("unable to write simulator file: %v", err)
	}

	scopePath := filepath.Join(dir, "scope.csv")
	if err := os.WriteFile(scopePath, []byte("a;b;;0,0;0,01\na;b;;0,1;0,34\n"), 0o644); err != nil {
		t.Fatalf("unable to write scope file: %v", err)
	}

	return ChannelConfig{
		Name:          "V1",
		Title:         "Comparação entre Simulador e Osciloscópio para V1(t)",
		SimulatorPath: simPath,
		ScopePath:     scopePath,
		Model: ExpModel{
			Offset: 1,
			Terms: []ExpTerm{
				{Coeff: -0.993, Rate: -4.51},
				{Coeff: -0.0063, Rate: -10.08},
			},
		},
	}
}

func TestBuildComparison(t *testing.T) {
	grid := TimeGrid(0, 2, 0.01)

	t.Run("AllSourcesPresent", func(t *testing.T) {
		cfg := writeChannelFiles(t)

		comparison := BuildComparison(context.Background(), cfg, grid)

		if len(comparison.Series) != 3 {
			t.Fatalf("expected 3 series, got %d", len(comparison.Series))
		}

		wantLabels := []string{LabelSimulator, LabelScope, LabelAnalytic}
		for i, series := range comparison.Series {
			if series.Label != wantLabels[i] {
				t.Fatalf("unexpected series %d label: got %q want %q", i, series.Label, wantLabels[i])
			}
		}

		if comparison.Series[0].Data.Len() != 2 {
			t.Fatalf("expected 2 simulator rows, got %d", comparison.Series[0].Data.Len())
		}
		if comparison.Series[2].Data.Len() != len(grid) {
			t.Fatalf("expected %d analytic rows, got %d", len(grid), comparison.Series[2].Data.Len())
		}
	})

	t.Run("MissingSimulatorFile", func(t *testing.T) {
		cfg := writeChannelFiles(t)
		cfg.SimulatorPath = filepath.Join(t.TempDir(), "nope.txt")

		comparison := BuildComparison(context.Background(), cfg, grid)

		if len(comparison.Series) != 2 {
			t.Fatalf("expected 2 series, got %d", len(comparison.Series))
		}
		if comparison.Series[0].Label != LabelScope {
			t.Fatalf("expected first series %q, got %q", LabelScope, comparison.Series[0].Label)
		}
	})

	t.Run("AllFilesMissing", func(t *testing.T) {
		dir := t.TempDir()
		cfg := ChannelConfig{
			Name:          "V2",
			SimulatorPath: filepath.Join(dir, "nope.txt"),
			ScopePath:     filepath.Join(dir, "nope.csv"),
			Model:         ExpModel{Terms: []ExpTerm{{Coeff: 1, Rate: -1}}},
		}

		comparison := BuildComparison(context.Background(), cfg, grid)

		// The analytical curve never depends on a file, so the panel always
		// has at least one series.
		if len(comparison.Series) != 1 {
			t.Fatalf("expected 1 series, got %d", len(comparison.Series))
		}
		if comparison.Series[0].Label != LabelAnalytic {
			t.Fatalf("expected analytic series, got %q", comparison.Series[0].Label)
		}
	})
}

func TestBuildComparisons(t *testing.T) {
	cfg := DefaultConfig(t.TempDir())

	comparisons := BuildComparisons(context.Background(), cfg)

	if len(comparisons) != 2 {
		t.Fatalf("expected 2 comparisons, got %d", len(comparisons))
	}
	if comparisons[0].Name != "V1" || comparisons[1].Name != "V2" {
		t.Fatalf("unexpected channel names: %s, %s", comparisons[0].Name, comparisons[1].Name)
	}
}
