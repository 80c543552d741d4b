package waveplot

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
)

// Binary protocol for the /ws2 endpoint. Every message is a fixed 8-byte
// envelope followed by a typed payload. DATA payloads carry one whole series
// as parallel X/Y arrays; METADATA and STREAM_END payloads are
// length-prefixed JSON.

const (
	ProtocolVersion byte = 1

	MessageTypeData      byte = 0x01
	MessageTypeMetadata  byte = 0x02
	MessageTypeStreamEnd byte = 0x03

	EnvelopeHeaderSize = 8
)

type EnvelopeHeader struct {
	Version  byte
	Reserved [2]byte
	Type     byte
	Length   uint32 // Payload length in bytes
}

// DataMessage carries one complete series (type 0x01).
type DataMessage struct {
	SeriesID uint32
	Length   uint32 // Number of X/Y pairs
	X        []float64
	Y        []float64
}

// StreamEndMessage terminates the stream (type 0x03).
type StreamEndMessage struct {
	Error bool
	Msg   string
}

// WSMessage is a decoded message: header plus one of DataMessage, Metadata,
// StreamEndMessage.
type WSMessage struct {
	Header  EnvelopeHeader
	Payload interface{}
}

func EncodeEnvelopeHeader(env EnvelopeHeader) []byte {
	buf := make([]byte, EnvelopeHeaderSize)
	buf[0] = env.Version
	buf[1] = env.Reserved[0]
	buf[2] = env.Reserved[1]
	buf[3] = env.Type
	binary.LittleEndian.PutUint32(buf[4:8], env.Length)
	return buf
}

func DecodeEnvelopeHeader(buf []byte) (EnvelopeHeader, error) {
	if len(buf) < EnvelopeHeaderSize {
		return EnvelopeHeader{}, fmt.Errorf("buffer too short: expected at least %d bytes, got %d", EnvelopeHeaderSize, len(buf))
	}

	env := EnvelopeHeader{
		Version: buf[0],
		Type:    buf[3],
		Length:  binary.LittleEndian.Uint32(buf[4:8]),
	}
	env.Reserved[0] = buf[1]
	env.Reserved[1] = buf[2]

	return env, nil
}

// EncodeDataMessage encodes a DATA payload. The X and Y arrays must both
// have Length elements.
func EncodeDataMessage(msg DataMessage) ([]byte, error) {
	if len(msg.X) != len(msg.Y) {
		return nil, fmt.Errorf("X and Y arrays must have same length: X=%d, Y=%d", len(msg.X), len(msg.Y))
	}
	if uint32(len(msg.X)) != msg.Length {
		return nil, fmt.Errorf("Length field (%d) doesn't match array length (%d)", msg.Length, len(msg.X))
	}

	// SeriesID(4) + Length(4) + X array + Y array
	buf := make([]byte, 8+(msg.Length*8*2))
	binary.LittleEndian.PutUint32(buf[0:4], msg.SeriesID)
	binary.LittleEndian.PutUint32(buf[4:8], msg.Length)

	offset := 8
	for _, x := range msg.X {
		binary.LittleEndian.PutUint64(buf[offset:offset+8], math.Float64bits(x))
		offset += 8
	}
	for _, y := range msg.Y {
		binary.LittleEndian.PutUint64(buf[offset:offset+8], math.Float64bits(y))
		offset += 8
	}

	return buf, nil
}

// DecodeDataMessage decodes a DATA payload.
func DecodeDataMessage(buf []byte) (DataMessage, error) {
	if len(buf) < 8 {
		return DataMessage{}, fmt.Errorf("buffer too short for DATA message: expected at least 8 bytes, got %d", len(buf))
	}

	msg := DataMessage{
		SeriesID: binary.LittleEndian.Uint32(buf[0:4]),
		Length:   binary.LittleEndian.Uint32(buf[4:8]),
	}

	expectedSize := 8 + (msg.Length * 8 * 2)
	if uint32(len(buf)) != expectedSize {
		return DataMessage{}, fmt.Errorf("buffer size mismatch: expected %d bytes for %d pairs, got %d", expectedSize, msg.Length, len(buf))
	}

	msg.X = make([]float64, msg.Length)
	msg.Y = make([]float64, msg.Length)
	offset := 8
	for i := uint32(0); i < msg.Length; i++ {
		msg.X[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[offset : offset+8]))
		offset += 8
	}
	for i := uint32(0); i < msg.Length; i++ {
		msg.Y[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[offset : offset+8]))
		offset += 8
	}

	return msg, nil
}

// METADATA and STREAM_END payloads share the same framing: a 4-byte JSON
// length followed by the JSON document.
func encodeJSONPayload(v interface{}) ([]byte, error) {
	jsonData, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	buf := make([]byte, 4+len(jsonData))
	binary.LittleEndian.PutUint32(buf[0:4], uint32(len(jsonData)))
	copy(buf[4:], jsonData)

	return buf, nil
}

func decodeJSONPayload(buf []byte, v interface{}) error {
	if len(buf) < 4 {
		return fmt.Errorf("buffer too short for JSON payload: expected at least 4 bytes, got %d", len(buf))
	}

	jsonLength := binary.LittleEndian.Uint32(buf[0:4])
	if uint32(len(buf)) != 4+jsonLength {
		return fmt.Errorf("buffer size mismatch: expected %d bytes, got %d", 4+jsonLength, len(buf))
	}

	if err := json.Unmarshal(buf[4:], v); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	return nil
}

// EncodeWSMessage encodes a complete message (envelope + payload). The
// header length is computed from the encoded payload.
func EncodeWSMessage(msg WSMessage) ([]byte, error) {
	var payload []byte
	var err error

	switch msg.Header.Type {
	case MessageTypeData:
		dataMsg, ok := msg.Payload.(DataMessage)
		if !ok {
			return nil, fmt.Errorf("payload type mismatch: expected DataMessage for type 0x%02x, got %T", msg.Header.Type, msg.Payload)
		}
		payload, err = EncodeDataMessage(dataMsg)
	case MessageTypeMetadata:
		metadata, ok := msg.Payload.(Metadata)
		if !ok {
			return nil, fmt.Errorf("payload type mismatch: expected Metadata for type 0x%02x, got %T", msg.Header.Type, msg.Payload)
		}
		payload, err = encodeJSONPayload(metadata)
	case MessageTypeStreamEnd:
		streamEnd, ok := msg.Payload.(StreamEndMessage)
		if !ok {
			return nil, fmt.Errorf("payload type mismatch: expected StreamEndMessage for type 0x%02x, got %T", msg.Header.Type, msg.Payload)
		}
		payload, err = encodeJSONPayload(streamEnd)
	default:
		return nil, fmt.Errorf("unknown message type: 0x%02x", msg.Header.Type)
	}

	if err != nil {
		return nil, err
	}

	msg.Header.Length = uint32(len(payload))
	header := EncodeEnvelopeHeader(msg.Header)

	fullMsg := make([]byte, len(header)+len(payload))
	copy(fullMsg, header)
	copy(fullMsg[len(header):], payload)

	return fullMsg, nil
}

// DecodeWSMessage decodes a complete message (envelope + payload).
func DecodeWSMessage(buf []byte) (WSMessage, error) {
	env, err := DecodeEnvelopeHeader(buf)
	if err != nil {
		return WSMessage{}, err
	}

	expectedSize := EnvelopeHeaderSize + env.Length
	if uint32(len(buf)) < expectedSize {
		return WSMessage{}, fmt.Errorf("buffer too short: expected %d bytes (header + payload), got %d", expectedSize, len(buf))
	}

	payloadBytes := buf[EnvelopeHeaderSize : EnvelopeHeaderSize+env.Length]

	var payload interface{}
	switch env.Type {
	case MessageTypeData:
		payload, err = DecodeDataMessage(payloadBytes)
	case MessageTypeMetadata:
		var metadata Metadata
		err = decodeJSONPayload(payloadBytes, &metadata)
		payload = metadata
	case MessageTypeStreamEnd:
		var streamEnd StreamEndMessage
		err = decodeJSONPayload(payloadBytes, &streamEnd)
		payload = streamEnd
	default:
		return WSMessage{}, fmt.Errorf("unknown message type: 0x%02x", env.Type)
	}

	if err != nil {
		return WSMessage{}, err
	}

	return WSMessage{
		Header:  env,
		Payload: payload,
	}, nil
}
