package waveplot

import "path/filepath"

// ChannelConfig describes one measured node: where its two data files live
// and the analytical model it is compared against.
type ChannelConfig struct {
	// Short node name, e.g. "V1". Used for logging and series identity.
	Name string

	// Panel title.
	Title string

	SimulatorPath string
	ScopePath     string

	Model ExpModel
}

// Config gathers everything the driver needs: the channels to compare, the
// analytical time grid, the visible window, and where the figure goes.
type Config struct {
	Host string
	Port uint16

	// If non-empty, write the figure as PNG to this path instead of serving
	// it.
	Output string

	// Figure size in points.
	FigureWidth  float64
	FigureHeight float64

	// Visible time window on the x axis.
	XMin float64
	XMax float64

	// Analytical curve grid: [GridStart, GridStop) sampled every GridStep.
	GridStart float64
	GridStop  float64
	GridStep  float64

	Channels []ChannelConfig
}

// DefaultConfig reproduces the original comparison: two channels, the data
// files as exported by the lab bench, a [0, 2)s analytical grid at 10ms and
// a visible window of [-0.1, 2]s. Note the scope file numbering is swapped
// relative to the node numbering; that is how the bench saved them.
func DefaultConfig(dataDir string) Config {
	return Config{
		Host: "localhost",
		Port: 5274,

		FigureWidth:  720,
		FigureHeight: 576,

		XMin: -0.1,
		XMax: 2,

		GridStart: 0,
		GridStop:  2,
		GridStep:  0.01,

		Channels: []ChannelConfig{
			{
				Name:          "V1",
				Title:         "Comparação entre Simulador e Osciloscópio para V1(t)",
				SimulatorPath: filepath.Join(dataDir, "V1.txt"),
				ScopePath:     filepath.Join(dataDir, "Osciloscópio - F0000CH2.csv"),
				Model: ExpModel{
					Offset: 1,
					Terms: []ExpTerm{
						{Coeff: -0.993, Rate: -4.51},
						{Coeff: -0.0063, Rate: -10.08},
					},
				},
			},
			{
				Name:          "V2",
				Title:         "Comparação entre Simulador e Osciloscópio para V2(t)",
				SimulatorPath: filepath.Join(dataDir, "V2.txt"),
				ScopePath:     filepath.Join(dataDir, "Osciloscópio - F0000CH1.csv"),
				Model: ExpModel{
					Terms: []ExpTerm{
						{Coeff: 0.8159, Rate: -4.51},
						{Coeff: -0.8159, Rate: -10.08},
					},
				},
			},
		},
	}
}

// TimeGrid returns the analytical curve grid configured for this run.
func (c Config) TimeGrid() []float64 {
	return TimeGrid(c.GridStart, c.GridStop, c.GridStep)
}
