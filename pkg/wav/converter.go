package wav

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/go-audio/audio"
	gowav "github.com/go-audio/wav"
)

const (
	HeaderSize    = 44
	BitsPerSample = 16
	BytesPerFrame = BitsPerSample / 8
)

// ErrInvalidContainer is returned for data that is not a PCM WAV file.
var ErrInvalidContainer = errors.New("invalid wav container")

// Info describes a decoded WAV container.
type Info struct {
	SampleRate int
	Channels   int
	BitDepth   int
	DataBytes  int
	Duration   time.Duration
}

// ConvertPCMToWAV wraps little-endian 16-bit PCM into a canonical 44-byte
// header RIFF/WAVE container. A trailing odd byte is dropped so the data
// chunk holds whole samples.
func ConvertPCMToWAV(pcmData []byte, channels int, sampleRate int) []byte {
	if len(pcmData)%2 != 0 {
		pcmData = pcmData[:len(pcmData)-1]
	}
	dataSize := uint32(len(pcmData))
	blockAlign := channels * BytesPerFrame

	out := make([]byte, HeaderSize+len(pcmData))
	copy(out[0:4], "RIFF")
	binary.LittleEndian.PutUint32(out[4:8], 36+dataSize)
	copy(out[8:12], "WAVE")

	copy(out[12:16], "fmt ")
	binary.LittleEndian.PutUint32(out[16:20], 16)
	binary.LittleEndian.PutUint16(out[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(out[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(out[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(out[28:32], uint32(sampleRate*blockAlign))
	binary.LittleEndian.PutUint16(out[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(out[34:36], BitsPerSample)

	copy(out[36:40], "data")
	binary.LittleEndian.PutUint32(out[40:44], dataSize)
	copy(out[HeaderSize:], pcmData)

	return out
}

// DecodeBuffer parses a 16-bit PCM WAV container into an integer sample
// buffer along with the container metadata.
func DecodeBuffer(data []byte) (*audio.IntBuffer, Info, error) {
	d := gowav.NewDecoder(bytes.NewReader(data))
	if !d.IsValidFile() {
		return nil, Info{}, ErrInvalidContainer
	}
	if d.BitDepth != BitsPerSample {
		return nil, Info{}, fmt.Errorf("%w: unsupported bit depth %d", ErrInvalidContainer, d.BitDepth)
	}

	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, Info{}, fmt.Errorf("failed to read pcm data: %w", err)
	}

	info := Info{
		SampleRate: int(d.SampleRate),
		Channels:   int(d.NumChans),
		BitDepth:   int(d.BitDepth),
		DataBytes:  len(buf.Data) * BytesPerFrame,
	}
	if frames := info.SampleRate * info.Channels; frames > 0 {
		info.Duration = time.Duration(len(buf.Data)) * time.Second / time.Duration(frames)
	}
	return buf, info, nil
}

// Decode is DecodeBuffer with the samples returned as little-endian bytes.
func Decode(data []byte) ([]byte, Info, error) {
	buf, info, err := DecodeBuffer(data)
	if err != nil {
		return nil, Info{}, err
	}

	pcm := make([]byte, len(buf.Data)*BytesPerFrame)
	for i, s := range buf.Data {
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(int16(s)))
	}
	return pcm, info, nil
}

// Inspect returns container metadata without keeping the samples.
func Inspect(data []byte) (Info, error) {
	_, info, err := DecodeBuffer(data)
	return info, err
}
