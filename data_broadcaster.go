package waveplot

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
)

// SeriesPoint is one (x, y) sample of one series, as sent to websocket
// clients. SeriesID follows the FigureMetadata numbering.
type SeriesPoint struct {
	SeriesID uint32
	X        float64
	Y        float64

	streamEnded bool
	streamErr   error
}

// When Read is called, return the next SeriesPoint, then io.EOF.
type SeriesPointReader interface {
	Read(context.Context) (SeriesPoint, error)
}

// Flattens the composed comparisons into a stream of SeriesPoints: panels in
// order, series within a panel in order, rows in file order.
type ComparisonPointReader struct {
	series []Table
	index  int
	row    int
}

func NewComparisonPointReader(comparisons []ChannelComparison) *ComparisonPointReader {
	r := &ComparisonPointReader{}
	for _, comparison := range comparisons {
		for _, series := range comparison.Series {
			r.series = append(r.series, series.Data)
		}
	}
	return r
}

func (r *ComparisonPointReader) Read(ctx context.Context) (SeriesPoint, error) {
	for r.index < len(r.series) {
		if r.row >= r.series[r.index].Len() {
			r.index++
			r.row = 0
			continue
		}

		x, y := r.series[r.index].XY(r.row)
		point := SeriesPoint{
			SeriesID: uint32(r.index),
			X:        x,
			Y:        y,
		}
		r.row++
		return point, nil
	}

	return SeriesPoint{}, io.EOF
}

// TotalPoints reports the number of points the reader will emit in total.
func (r *ComparisonPointReader) TotalPoints() int {
	total := 0
	for _, table := range r.series {
		total += table.Len()
	}
	return total
}

// DataBroadcaster reads the composed point stream once and replays it to
// every registered websocket channel. Points are buffered in a ring so
// clients that connect after the stream ended still receive the full figure
// data followed by the end marker.
type DataBroadcaster struct {
	input SeriesPointReader

	mutex sync.Mutex
	wg    sync.WaitGroup

	// If the stream is ended or not
	streamEnded atomic.Bool
	err         error // The error emitted by run(), if any. Read after streamEnded == true to ensure no data race.

	// These are channels from open websockets where we are sending data to.
	// Channels should be buffered, to not block the DataBroadcaster.
	channelsForLiveUpdate []chan<- SeriesPoint

	// The replay history sent to a channel upon registration. See
	// RegisterChannel for details.
	dataBuffer *ThreadUnsafeRing[SeriesPoint]

	numPointsEmitted int

	logger *slog.Logger
}

func NewDataBroadcaster(input SeriesPointReader, bufferCapacity int) *DataBroadcaster {
	return &DataBroadcaster{
		input:                 input,
		mutex:                 sync.Mutex{},
		channelsForLiveUpdate: make([]chan<- SeriesPoint, 0),
		dataBuffer:            NewRing[SeriesPoint](bufferCapacity),
		numPointsEmitted:      0,
		logger:                slog.Default().With("tag", "DataBroadcaster"),
	}
}

func (d *DataBroadcaster) Start(ctx context.Context) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		err := d.run(ctx)

		d.err = err

		// Must set all variables to be read after the broadcaster is complete
		// before this, as this atomic is used to "release" the other variables
		// (see Golang memory model).
		d.streamEnded.Store(true)

		// Caching the end marker lets newly connected clients learn the
		// stream is over without a separate code path.
		d.cacheAndBroadcastPoint(SeriesPoint{
			streamEnded: true,
			streamErr:   err,
		})

		logger := d.logger.With("numPointsEmitted", d.numPointsEmitted)
		if err != nil {
			logger = logger.With("error", err)
		}
		logger.Info("data broadcaster stream ended")
	}()
}

func (d *DataBroadcaster) Wait() {
	d.wg.Wait()
}

// StreamError returns the error that ended the stream, if any. Only valid
// after Wait returns.
func (d *DataBroadcaster) StreamError() error {
	if !d.streamEnded.Load() {
		return nil
	}
	return d.err
}

// Register a new channel. Called from the HTTP server when a new websocket
// connection is initiated.
//
// The mutex ensures that the buffered history is pushed to the new channel
// before any further point is broadcast, so a late subscriber sees every
// point exactly once and in order. Registration latency can briefly stall
// the other subscribers; with a static figure replay that is never a
// concern.
func (d *DataBroadcaster) RegisterChannel(ctx context.Context, c chan<- SeriesPoint) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	d.pushBufferedPointsToChannel(c)
	d.channelsForLiveUpdate = append(d.channelsForLiveUpdate, c)

	d.logger.With("channels", len(d.channelsForLiveUpdate)).Info("registered channel")
}

// Deregister a channel. Called when a websocket client disconnects. The
// channel must not be closed until this method returns, as the broadcaster
// may still be sending to it.
func (d *DataBroadcaster) DeregisterChannel(ctx context.Context, c chan<- SeriesPoint) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	d.channelsForLiveUpdate = Filter(d.channelsForLiveUpdate, func(channel chan<- SeriesPoint) bool {
		return channel != c
	})
	d.logger.With("channels", len(d.channelsForLiveUpdate)).Info("deregistered channel")
}

func (d *DataBroadcaster) run(ctx context.Context) error {
	for {
		point, err := d.input.Read(ctx)
		if err == errIgnoreThisRow {
			continue
		} else if err == io.EOF {
			// The source is drained. The channels stay open because new
			// browser tabs can still come online and replay the buffer.
			return nil
		} else if err != nil {
			return err
		}

		d.cacheAndBroadcastPoint(point)
	}
}

func (d *DataBroadcaster) cacheAndBroadcastPoint(point SeriesPoint) {
	d.numPointsEmitted++

	d.mutex.Lock()
	defer d.mutex.Unlock()

	d.dataBuffer.Push(point)

	for _, c := range d.channelsForLiveUpdate {
		c <- point
	}
}

func (d *DataBroadcaster) pushBufferedPointsToChannel(c chan<- SeriesPoint) {
	for _, point := range d.dataBuffer.ReadAllOrdered() {
		c <- point
	}
}
