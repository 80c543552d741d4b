package main

import (
	"context"
	"os"

	flags "github.com/jessevdk/go-flags"
	"github.com/sirupsen/logrus"

	waveplot "github.com/armandokeller/graficos-comparacao"
)

type options struct {
	Host    string `long:"host" default:"localhost" description:"Host to listen on"`
	Port    uint16 `short:"p" long:"port" default:"5274" description:"Port to listen on"`
	DataDir string `short:"d" long:"data-dir" default:"dados" description:"Directory containing the instrument exports"`
	Output  string `short:"o" long:"output" description:"Write the figure to this PNG file and exit instead of serving it"`
	Verbose bool   `short:"v" long:"verbose" description:"Enable debug logging"`
}

func main() {
	var opts options
	if _, err := flags.Parse(&opts); err != nil {
		if flags.WroteHelp(err) {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if opts.Verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	cfg := waveplot.DefaultConfig(opts.DataDir)
	cfg.Host = opts.Host
	cfg.Port = opts.Port
	cfg.Output = opts.Output

	ctx := context.Background()
	comparisons := waveplot.BuildComparisons(ctx, cfg)

	if cfg.Output != "" {
		if err := waveplot.WriteFigure(cfg.Output, comparisons, cfg.FigureOptions()); err != nil {
			logrus.WithError(err).Fatal("unable to write figure")
		}
		return
	}

	figure, err := waveplot.RenderFigure(comparisons, cfg.FigureOptions())
	if err != nil {
		logrus.WithError(err).Fatal("unable to render figure")
	}

	metadata := waveplot.FigureMetadata(comparisons, cfg.FigureOptions())

	pointReader := waveplot.NewComparisonPointReader(comparisons)
	dataBroadcaster := waveplot.NewDataBroadcaster(pointReader, pointReader.TotalPoints()+1)
	dataBroadcaster.Start(ctx)

	server := waveplot.NewHttpServer(dataBroadcaster, cfg.Host, cfg.Port, metadata, figure, comparisons)
	if err := server.Run(); err != nil {
		logrus.WithError(err).Fatal("http server failed")
	}
}
