// Package audio turns a stream of raw PCM fragments into independently
// playable WAV containers.
package audio

import (
	"encoding/base64"
	"fmt"
	"time"

	"github.com/dooshek/sonicstream/pkg/wav"
)

const (
	// MinChunkSeconds is the default amount of audio buffered before an
	// intermediate container is emitted.
	MinChunkSeconds = 1.0

	bytesPerSample = 2
	channels       = 1
)

// Container is one emitted WAV file. Data is owned by the receiver once
// the container leaves the assembler.
type Container struct {
	Seq      int
	Data     []byte
	PCMBytes int
	Duration time.Duration
	Peak     float64
}

// Base64 returns the container encoded for string-only boundaries.
func (c Container) Base64() string {
	return base64.StdEncoding.EncodeToString(c.Data)
}

// Assembler accumulates PCM16 mono samples and flushes them as WAV
// containers once at least threshold bytes are buffered. It is not safe
// for concurrent use; a session owns exactly one.
type Assembler struct {
	sampleRate int
	threshold  int
	buf        []byte
	seq        int
}

// NewAssembler returns an assembler flushing every minChunkSeconds of audio
// at sampleRate.
func NewAssembler(sampleRate int, minChunkSeconds float64) (*Assembler, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", sampleRate)
	}
	if minChunkSeconds < 0 {
		return nil, fmt.Errorf("min chunk seconds must not be negative, got %g", minChunkSeconds)
	}

	threshold := int(float64(sampleRate*bytesPerSample) * minChunkSeconds)
	return &Assembler{
		sampleRate: sampleRate,
		threshold:  threshold,
		buf:        make([]byte, 0, threshold),
	}, nil
}

// Threshold is the buffered byte count that triggers a flush.
func (a *Assembler) Threshold() int {
	return a.threshold
}

// Buffered is the number of bytes waiting for the next flush.
func (a *Assembler) Buffered() int {
	return len(a.buf)
}

// Append buffers pcm and flushes when the threshold is reached. The second
// result reports whether a container was produced.
func (a *Assembler) Append(pcm []byte) (Container, bool) {
	a.buf = append(a.buf, pcm...)
	if len(a.buf) > 0 && len(a.buf) >= a.threshold {
		return a.Flush()
	}
	return Container{}, false
}

// Flush wraps everything buffered into a container and clears the buffer.
// A trailing odd byte is dropped to keep 16-bit alignment. Nothing is
// produced for an empty buffer.
func (a *Assembler) Flush() (Container, bool) {
	if len(a.buf) == 0 {
		return Container{}, false
	}

	pcm := a.buf[:len(a.buf)-len(a.buf)%bytesPerSample]
	samples := len(pcm) / bytesPerSample
	c := Container{
		Seq:      a.seq,
		Data:     wav.ConvertPCMToWAV(pcm, channels, a.sampleRate),
		PCMBytes: len(pcm),
		Duration: time.Duration(samples) * time.Second / time.Duration(a.sampleRate),
		Peak:     Peak(pcm),
	}
	a.seq++
	a.buf = a.buf[:0]
	return c, true
}

// FinalFlush emits whatever is left regardless of the threshold. It is
// called once when a session ends.
func (a *Assembler) FinalFlush() (Container, bool) {
	return a.Flush()
}
