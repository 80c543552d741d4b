package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"strconv"

	"nhooyr.io/websocket"

	waveplot "github.com/armandokeller/graficos-comparacao"
)

// Dumps the figure data served by a running wavecompare instance. It dials
// the /ws2 endpoint, decodes the binary protocol and writes one
// series_id,x,y CSV row per point; series ids follow the /metadata panel
// ordering.
type WSReader struct {
	serverURL string
	csvWriter *csv.Writer
	logger    *slog.Logger
}

func NewWSReader(serverURL string, output io.Writer, logger *slog.Logger) *WSReader {
	return &WSReader{
		serverURL: serverURL,
		csvWriter: csv.NewWriter(output),
		logger:    logger,
	}
}

// Run connects to the server and writes CSV rows until the stream ends.
func (w *WSReader) Run(ctx context.Context) error {
	u, err := url.Parse(w.serverURL)
	if err != nil {
		return fmt.Errorf("invalid server URL: %w", err)
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path = "/ws2"

	w.logger.Info("connecting to websocket", "url", u.String())

	conn, _, err := websocket.Dial(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to connect to websocket: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	if err := w.csvWriter.Write([]string{"series_id", "x", "y"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for {
		_, raw, err := conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure {
				w.logger.Info("connection closed normally")
				break
			}
			w.logger.Error("error reading message", "error", err)
			break
		}

		if err := w.handleMessage(raw); err != nil {
			if err == io.EOF {
				w.logger.Info("stream ended")
				break
			}
			w.logger.Error("error processing message", "error", err)
		}
	}

	w.csvWriter.Flush()
	return w.csvWriter.Error()
}

// handleMessage dispatches one decoded protocol message. DATA messages turn
// into CSV rows, STREAM_END returns io.EOF to stop the loop, everything
// else is only logged.
func (w *WSReader) handleMessage(raw []byte) error {
	msg, err := waveplot.DecodeWSMessage(raw)
	if err != nil {
		return fmt.Errorf("failed to decode message: %w", err)
	}

	switch payload := msg.Payload.(type) {
	case waveplot.DataMessage:
		return w.writeSeries(payload)

	case waveplot.Metadata:
		w.logger.Debug("received metadata", "panels", len(payload.Panels))

	case waveplot.StreamEndMessage:
		if payload.Error {
			w.logger.Error("stream ended with error", "message", payload.Msg)
		} else {
			w.logger.Info("stream ended successfully")
		}
		return io.EOF

	default:
		w.logger.Warn("unknown message type", "type", fmt.Sprintf("0x%02x", msg.Header.Type))
	}

	return nil
}

// writeSeries writes one whole series as CSV rows.
func (w *WSReader) writeSeries(msg waveplot.DataMessage) error {
	seriesID := strconv.FormatUint(uint64(msg.SeriesID), 10)

	for i := 0; i < len(msg.X); i++ {
		row := []string{
			seriesID,
			strconv.FormatFloat(msg.X[i], 'g', -1, 64),
			strconv.FormatFloat(msg.Y[i], 'g', -1, 64),
		}
		if err := w.csvWriter.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	w.csvWriter.Flush()
	return w.csvWriter.Error()
}

func main() {
	serverURL := flag.String("url", "http://localhost:5274", "URL of the wavecompare server")
	verbose := flag.Bool("v", false, "enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	reader := NewWSReader(*serverURL, os.Stdout, logger)
	if err := reader.Run(context.Background()); err != nil {
		logger.Error("export failed", "error", err)
		os.Exit(1)
	}
}
