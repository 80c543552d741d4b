package waveplot

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"net/http"
	"sync"

	"github.com/sirupsen/logrus"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

const channelBufferSize = 10000

//go:embed webui
var webuiFiles embed.FS

// HttpServer is the display surface: it serves the rendered figure, the
// figure metadata and the raw series data (JSON rows on /ws, the binary
// protocol on /ws2) until the process is interrupted.
type HttpServer struct {
	dataBroadcaster *DataBroadcaster
	host            string
	port            uint16
	metadata        Metadata
	figurePNG       []byte
	comparisons     []ChannelComparison
	mux             *http.ServeMux
	logger          logrus.FieldLogger
}

func NewHttpServer(dataBroadcaster *DataBroadcaster, host string, port uint16, metadata Metadata, figurePNG []byte, comparisons []ChannelComparison) *HttpServer {
	s := &HttpServer{
		dataBroadcaster: dataBroadcaster,
		host:            host,
		port:            port,
		metadata:        metadata,
		figurePNG:       figurePNG,
		comparisons:     comparisons,
		mux:             http.NewServeMux(),
		logger:          logrus.WithField("tag", "HttpServer"),
	}

	subFS, err := fs.Sub(webuiFiles, "webui")
	if err != nil {
		panic(err)
	}

	s.mux.Handle("/", http.FileServer(http.FS(subFS)))
	s.mux.HandleFunc("/figure.png", s.handleFigure)
	s.mux.HandleFunc("/metadata", s.handleMetadata)
	s.mux.HandleFunc("/ws", s.handleWebSocket)
	s.mux.HandleFunc("/ws2", s.handleWebSocket2)

	return s
}

func (s *HttpServer) handleFigure(w http.ResponseWriter, req *http.Request) {
	w.Header().Add("Content-Type", "image/png")
	w.Write(s.figurePNG)
}

func (s *HttpServer) handleMetadata(w http.ResponseWriter, req *http.Request) {
	w.Header().Add("Content-Type", "application/json")
	err := json.NewEncoder(w).Encode(s.metadata)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(err.Error()))
	}
}

// handleWebSocket replays the series points as JSON rows via the
// broadcaster, so every connected client sees the full figure data followed
// by a normal close.
func (s *HttpServer) handleWebSocket(w http.ResponseWriter, req *http.Request) {
	c, err := websocket.Accept(w, req, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		s.logger.WithError(err).Warn("failed to accept new websocket connection")
		return
	}

	ctx := req.Context()
	ctx = c.CloseRead(ctx) // We only write on this socket.

	channel := make(chan SeriesPoint, channelBufferSize)
	wg := sync.WaitGroup{}
	wg.Add(1)

	go func() {
		defer wg.Done()
		for {
			select {
			case point, open := <-channel:
				if !open {
					s.logger.Warn("data channel closed, closing websocket")
					c.Close(websocket.StatusNormalClosure, "channel closed")
					return
				}

				if point.streamEnded {
					c.Close(websocket.StatusNormalClosure, "stream ended")
					return
				}

				err := wsjson.Write(ctx, c, point)
				if err != nil {
					// At this point the websocket closed, so there is nothing
					// left to send.
					s.logger.Warn("websocket write failed and closed")
					return
				}
			case <-ctx.Done():
				s.logger.Info("client closed connection or context canceled")
				c.Close(websocket.StatusNormalClosure, "")
				return
			}
		}
	}()

	// The channel is already being received from in another goroutine and we
	// register the channels in the main thread.
	s.dataBroadcaster.RegisterChannel(ctx, channel)

	// Once the websocket writing thread finishes, deregister the channel from
	// the broadcaster.
	wg.Wait()
	s.dataBroadcaster.DeregisterChannel(ctx, channel)
	close(channel)
}

// handleWebSocket2 speaks the binary protocol: METADATA, one DATA message
// per series, STREAM_END, close. The figure data is static, so there is no
// need to go through the broadcaster here.
func (s *HttpServer) handleWebSocket2(w http.ResponseWriter, req *http.Request) {
	c, err := websocket.Accept(w, req, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		s.logger.WithError(err).Warn("failed to accept new websocket connection")
		return
	}

	ctx := req.Context()
	ctx = c.CloseRead(ctx)

	writeMessage := func(msgType byte, payload interface{}) error {
		encoded, err := EncodeWSMessage(WSMessage{
			Header:  EnvelopeHeader{Version: ProtocolVersion, Type: msgType},
			Payload: payload,
		})
		if err != nil {
			return err
		}
		return c.Write(ctx, websocket.MessageBinary, encoded)
	}

	if err := writeMessage(MessageTypeMetadata, s.metadata); err != nil {
		s.logger.WithError(err).Warn("failed to write metadata message")
		return
	}

	seriesID := uint32(0)
	for _, comparison := range s.comparisons {
		for _, series := range comparison.Series {
			msg := DataMessage{
				SeriesID: seriesID,
				Length:   uint32(series.Data.Len()),
				X:        make([]float64, series.Data.Len()),
				Y:        make([]float64, series.Data.Len()),
			}
			for i := 0; i < series.Data.Len(); i++ {
				msg.X[i], msg.Y[i] = series.Data.XY(i)
			}

			if err := writeMessage(MessageTypeData, msg); err != nil {
				s.logger.WithError(err).Warn("failed to write data message")
				return
			}
			seriesID++
		}
	}

	if err := writeMessage(MessageTypeStreamEnd, StreamEndMessage{}); err != nil {
		s.logger.WithError(err).Warn("failed to write stream end message")
		return
	}

	c.Close(websocket.StatusNormalClosure, "stream ended")
}

// Run serves until the listener fails, opening the system browser on the
// served figure first. This is the blocking display call that ends the
// program.
func (s *HttpServer) Run() error {
	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	logrus.Infof("starting HTTP server at http://%s", addr)
	openBrowser(fmt.Sprintf("http://%s", addr))
	return http.ListenAndServe(addr, s.mux)
}
