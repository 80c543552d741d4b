package waveplot

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

func startTestServer(t *testing.T) (*HttpServer, string, func()) {
	t.Helper()

	comparisons := broadcastComparisons()
	opts := DefaultConfig("dados").FigureOptions()
	metadata := FigureMetadata(comparisons, opts)

	reader := NewComparisonPointReader(comparisons)
	broadcaster := NewDataBroadcaster(reader, reader.TotalPoints()+1)
	broadcaster.Start(context.Background())
	broadcaster.Wait()

	figure := []byte("\x89PNG\r\n\x1a\nfake")

	// Use NewHttpServer so the handler registration matches production, but
	// serve via httptest instead of Run to avoid binding a fixed port and
	// opening a browser.
	s := NewHttpServer(broadcaster, "localhost", 0, metadata, figure, comparisons)
	srv := httptest.NewServer(s.mux)

	return s, srv.URL, srv.Close
}

func TestHandleMetadata(t *testing.T) {
	_, baseURL, cleanup := startTestServer(t)
	defer cleanup()

	resp, err := http.Get(baseURL + "/metadata")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	if got := resp.Header.Get("Content-Type"); !strings.Contains(got, "application/json") {
		t.Fatalf("unexpected content type: %q", got)
	}

	var metadata Metadata
	if err := json.NewDecoder(resp.Body).Decode(&metadata); err != nil {
		t.Fatalf("unable to decode metadata: %v", err)
	}

	if metadata.XMin != -0.1 || metadata.XMax != 2 {
		t.Fatalf("unexpected window: [%v, %v]", metadata.XMin, metadata.XMax)
	}
	if len(metadata.Panels) != 2 {
		t.Fatalf("expected 2 panels, got %d", len(metadata.Panels))
	}
}

func TestHandleFigure(t *testing.T) {
	s, baseURL, cleanup := startTestServer(t)
	defer cleanup()

	resp, err := http.Get(baseURL + "/figure.png")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	if got := resp.Header.Get("Content-Type"); got != "image/png" {
		t.Fatalf("unexpected content type: %q", got)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("unable to read body: %v", err)
	}
	if !reflect.DeepEqual(body, s.figurePNG) {
		t.Fatal("figure bytes do not match")
	}
}

func TestHandleWebSocket(t *testing.T) {
	_, baseURL, cleanup := startTestServer(t)
	defer cleanup()

	ctx := context.Background()
	wsURL := strings.Replace(baseURL, "http://", "ws://", 1) + "/ws"

	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("unable to dial websocket: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	var points []SeriesPoint
	for {
		var point SeriesPoint
		err := wsjson.Read(ctx, conn, &point)
		if err != nil {
			// Normal closure once the replay is done.
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure {
				break
			}
			t.Fatalf("unexpected read error: %v", err)
		}
		points = append(points, point)
	}

	if len(points) != 5 {
		t.Fatalf("expected 5 points, got %d", len(points))
	}
	if points[0] != (SeriesPoint{SeriesID: 0, X: 0, Y: 0}) {
		t.Fatalf("unexpected first point: %+v", points[0])
	}
	if points[4] != (SeriesPoint{SeriesID: 2, X: 0.5, Y: 0.3}) {
		t.Fatalf("unexpected last point: %+v", points[4])
	}
}

func TestHandleWebSocket2(t *testing.T) {
	_, baseURL, cleanup := startTestServer(t)
	defer cleanup()

	ctx := context.Background()
	wsURL := strings.Replace(baseURL, "http://", "ws://", 1) + "/ws2"

	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("unable to dial websocket: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	var dataMessages []DataMessage
	sawMetadata := false
	sawStreamEnd := false

	for !sawStreamEnd {
		_, raw, err := conn.Read(ctx)
		if err != nil {
			t.Fatalf("unexpected read error: %v", err)
		}

		msg, err := DecodeWSMessage(raw)
		if err != nil {
			t.Fatalf("unable to decode message: %v", err)
		}

		switch msg.Header.Type {
		case MessageTypeMetadata:
			sawMetadata = true
		case MessageTypeData:
			dataMessages = append(dataMessages, msg.Payload.(DataMessage))
		case MessageTypeStreamEnd:
			sawStreamEnd = true
		}
	}

	if !sawMetadata {
		t.Fatal("expected a METADATA message first")
	}
	if len(dataMessages) != 3 {
		t.Fatalf("expected 3 DATA messages, got %d", len(dataMessages))
	}

	want := DataMessage{SeriesID: 0, Length: 2, X: []float64{0, 1}, Y: []float64{0, 0.9}}
	if !reflect.DeepEqual(dataMessages[0], want) {
		t.Fatalf("unexpected first data message: got %+v want %+v", dataMessages[0], want)
	}
}
