// Package audio records and plays 16-bit little-endian mono PCM files. The
// microphone and speaker are abstracted as sample streams so the CLI can pipe
// them through arecord/aplay and tests can use in-memory buffers.
package audio

import (
	"encoding/binary"
	"errors"
	"io"
)

// Source yields captured samples. Read blocks until at least one sample is
// available and returns io.EOF when the stream ends.
type Source interface {
	Read(p []int16) (int, error)
}

// Sink consumes samples for output.
type Sink interface {
	Write(p []int16) (int, error)
}

// ReaderSource decodes a raw PCM byte stream.
type ReaderSource struct {
	r   io.Reader
	buf []byte
}

func NewReaderSource(r io.Reader) *ReaderSource {
	return &ReaderSource{r: r}
}

func (s *ReaderSource) Read(p []int16) (int, error) {
	need := len(p) * 2
	if cap(s.buf) < need {
		s.buf = make([]byte, need)
	}
	b := s.buf[:need]
	n, err := io.ReadFull(s.r, b)
	samples := n / 2
	decode(p[:samples], b[:samples*2])
	switch {
	case errors.Is(err, io.ErrUnexpectedEOF):
		return samples, io.EOF
	case err != nil:
		return samples, err
	}
	return samples, nil
}

// WriterSink encodes samples onto a byte stream.
type WriterSink struct {
	w   io.Writer
	buf []byte
}

func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

func (s *WriterSink) Write(p []int16) (int, error) {
	if cap(s.buf) < len(p)*2 {
		s.buf = make([]byte, len(p)*2)
	}
	b := s.buf[:len(p)*2]
	encode(b, p)
	n, err := s.w.Write(b)
	return n / 2, err
}

func decode(dst []int16, src []byte) {
	for i := range dst {
		dst[i] = int16(binary.LittleEndian.Uint16(src[2*i:]))
	}
}

func encode(dst []byte, src []int16) {
	for i, v := range src {
		binary.LittleEndian.PutUint16(dst[2*i:], uint16(v))
	}
}

// Duration returns the playing time of n bytes of PCM at sampleRate.
func Duration(n int64, sampleRate int) float64 {
	if sampleRate <= 0 {
		return 0
	}
	return float64(n/2) / float64(sampleRate)
}
