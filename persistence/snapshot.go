package persistence

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/hupe1980/plsom/codec"
	"github.com/hupe1980/plsom/som"
)

const (
	// maxHeaderLen bounds the codec-encoded header read from untrusted input.
	maxHeaderLen = 1 << 20
	// maxPayloadLen bounds the raw state bytes (512M float64 values).
	maxPayloadLen = math.MaxUint32
)

// Header describes the map a snapshot was taken from.
type Header struct {
	Config   som.Config `json:"config"`
	StateLen int        `json:"state_len"`
	// Step is the number of training steps seen when the snapshot was taken.
	Step uint64 `json:"step,omitempty"`
}

// Snapshot is a decoded snapshot file.
type Snapshot struct {
	Header
	State       []float64
	Codec       string
	Compression Compression
}

type options struct {
	codec       codec.Codec
	compression Compression
	step        uint64
}

// Option configures snapshot encoding.
type Option func(*options)

// WithCodec sets the header codec. Default: codec.Default.
func WithCodec(c codec.Codec) Option {
	return func(o *options) { o.codec = c }
}

// WithCompression sets the payload compression. Default: CompressionLZ4.
func WithCompression(c Compression) Option {
	return func(o *options) { o.compression = c }
}

// WithStep records the training step count in the header.
func WithStep(step uint64) Option {
	return func(o *options) { o.step = step }
}

func applyOptions(opts []Option) (options, error) {
	o := options{codec: codec.Default, compression: CompressionLZ4}
	for _, opt := range opts {
		opt(&o)
	}
	if o.codec == nil {
		o.codec = codec.Default
	}
	if _, ok := codec.ByName(o.codec.Name()); !ok {
		return o, fmt.Errorf("%w: %q", ErrUnknownCodec, o.codec.Name())
	}
	if !o.compression.valid() {
		return o, fmt.Errorf("%w: %d", ErrUnknownCompression, o.compression)
	}
	return o, nil
}

// Encode snapshots m.
func Encode(m som.Model, opts ...Option) ([]byte, error) {
	return EncodeState(m.Config(), m.StateVector(), opts...)
}

// EncodeState snapshots a configuration and a state vector taken earlier,
// e.g. on the goroutine that owns the map.
func EncodeState(cfg som.Config, state []float64, opts ...Option) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(len(state)*8 + 256)
	if err := WriteSnapshot(&buf, cfg, state, opts...); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteSnapshot streams a snapshot to w.
func WriteSnapshot(w io.Writer, cfg som.Config, state []float64, opts ...Option) error {
	o, err := applyOptions(opts)
	if err != nil {
		return err
	}
	if int64(len(state))*8 > maxPayloadLen {
		return fmt.Errorf("state vector too large: %d values", len(state))
	}

	hdr, err := o.codec.Marshal(Header{Config: cfg, StateLen: len(state), Step: o.step})
	if err != nil {
		return fmt.Errorf("encode header: %w", err)
	}
	if len(hdr) > maxHeaderLen {
		return fmt.Errorf("header too large: %d bytes", len(hdr))
	}

	raw := make([]byte, 0, len(state)*8)
	for _, v := range state {
		raw = binary.LittleEndian.AppendUint64(raw, math.Float64bits(v))
	}
	compression := o.compression
	stored, err := compress(raw, compression)
	if err != nil {
		return err
	}
	if stored == nil {
		stored = raw
		compression = CompressionNone
	}

	name := o.codec.Name()
	prefix := make([]byte, 0, 16+len(name)+len(hdr))
	prefix = append(prefix, Magic...)
	prefix = binary.LittleEndian.AppendUint16(prefix, Version)
	prefix = append(prefix, byte(compression), byte(len(name)))
	prefix = append(prefix, name...)
	prefix = binary.LittleEndian.AppendUint32(prefix, uint32(len(hdr)))
	prefix = append(prefix, hdr...)
	prefix = binary.LittleEndian.AppendUint32(prefix, uint32(len(raw)))
	prefix = binary.LittleEndian.AppendUint32(prefix, uint32(len(stored)))

	cw := NewChecksumWriter(w)
	if _, err := cw.Write(prefix); err != nil {
		return err
	}
	if _, err := cw.Write(stored); err != nil {
		return err
	}
	_, err = w.Write(binary.LittleEndian.AppendUint32(nil, cw.Sum()))
	return err
}

// Read parses a snapshot held in memory.
func Read(data []byte) (*Snapshot, error) {
	r := bytes.NewReader(data)
	snap, err := ReadSnapshot(r)
	if err != nil {
		return nil, err
	}
	if r.Len() != 0 {
		return nil, fmt.Errorf("%d trailing bytes after snapshot", r.Len())
	}
	return snap, nil
}

// ReadSnapshot parses a snapshot from r and verifies its checksum.
func ReadSnapshot(r io.Reader) (*Snapshot, error) {
	cr := NewChecksumReader(r)

	var fixed [8]byte
	if err := readFull(cr, fixed[:]); err != nil {
		return nil, err
	}
	if string(fixed[:4]) != Magic {
		return nil, ErrInvalidMagic
	}
	if v := binary.LittleEndian.Uint16(fixed[4:6]); v == 0 || v > Version {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, v)
	}
	snap := &Snapshot{Compression: Compression(fixed[6])}
	if !snap.Compression.valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownCompression, fixed[6])
	}

	name := make([]byte, fixed[7])
	if err := readFull(cr, name); err != nil {
		return nil, err
	}
	snap.Codec = string(name)
	c, ok := codec.ByName(snap.Codec)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCodec, snap.Codec)
	}

	hdrLen, err := readUint32(cr)
	if err != nil {
		return nil, err
	}
	if hdrLen > maxHeaderLen {
		return nil, fmt.Errorf("%w: header length %d", ErrTruncated, hdrLen)
	}
	hdr := make([]byte, hdrLen)
	if err := readFull(cr, hdr); err != nil {
		return nil, err
	}

	rawLen, err := readUint32(cr)
	if err != nil {
		return nil, err
	}
	storedLen, err := readUint32(cr)
	if err != nil {
		return nil, err
	}
	if storedLen > rawLen {
		return nil, fmt.Errorf("%w: stored payload %d exceeds raw %d", ErrTruncated, storedLen, rawLen)
	}
	// storedLen is untrusted until the checksum matches; grow with the bytes
	// actually present.
	var payload bytes.Buffer
	if _, err := payload.ReadFrom(io.LimitReader(cr, int64(storedLen))); err != nil {
		return nil, err
	}
	if uint64(payload.Len()) != uint64(storedLen) {
		return nil, fmt.Errorf("%w: payload %d of %d bytes", ErrTruncated, payload.Len(), storedLen)
	}
	stored := payload.Bytes()

	var trailer [4]byte
	if err := readFull(r, trailer[:]); err != nil {
		return nil, err
	}
	if err := cr.Verify(binary.LittleEndian.Uint32(trailer[:])); err != nil {
		return nil, err
	}

	if err := c.Unmarshal(hdr, &snap.Header); err != nil {
		return nil, fmt.Errorf("decode header: %w", err)
	}
	if snap.StateLen < 0 || uint64(snap.StateLen)*8 != uint64(rawLen) {
		return nil, fmt.Errorf("%w: header state length %d does not match payload of %d bytes", ErrTruncated, snap.StateLen, rawLen)
	}

	raw := stored
	if snap.Compression != CompressionNone {
		if raw, err = decompress(stored, int(rawLen), snap.Compression); err != nil {
			return nil, err
		}
	} else if storedLen != rawLen {
		return nil, fmt.Errorf("%w: raw payload %d of %d bytes", ErrTruncated, storedLen, rawLen)
	}
	snap.State = make([]float64, snap.StateLen)
	for i := range snap.State {
		snap.State[i] = math.Float64frombits(binary.LittleEndian.Uint64(raw[i*8:]))
	}
	return snap, nil
}

// Decode rebuilds the map recorded in data through the kind registry.
func Decode(data []byte, opts ...som.Option) (som.Model, error) {
	snap, err := Read(data)
	if err != nil {
		return nil, err
	}
	return snap.Restore(opts...)
}

// Restore constructs a map from the snapshot configuration and replays the
// state vector into it.
func (s *Snapshot) Restore(opts ...som.Option) (som.Model, error) {
	m, err := New(s.Config, opts...)
	if err != nil {
		return nil, err
	}
	if err := m.RestoreState(s.State); err != nil {
		return nil, fmt.Errorf("restore %s state: %w", s.Config.Kind, err)
	}
	return m, nil
}

func readFull(r io.Reader, p []byte) error {
	if _, err := io.ReadFull(r, p); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return ErrTruncated
		}
		return err
	}
	return nil
}

func readUint32(r io.Reader) (uint32, error) {
	var b [4]byte
	if err := readFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}
