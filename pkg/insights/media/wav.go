package media

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

const (
	wavFormatPCM        = 1
	wavFormatExtensible = 0xFFFE
)

var ErrMalformedWAV = errors.New("malformed wav file")

// WAVInfo describes the fmt and data chunks of a WAV file.
type WAVInfo struct {
	AudioFormat   uint16
	Channels      uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	DataSize      uint32
}

// ReadWAVInfo walks the RIFF chunks of a WAV file until it has seen both the
// "fmt " and the "data" chunk. Other chunks (LIST, fact...) are skipped.
func ReadWAVInfo(path string) (*WAVInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var riff [12]byte
	if _, err := io.ReadFull(f, riff[:]); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedWAV, err)
	}
	if string(riff[0:4]) != "RIFF" || string(riff[8:12]) != "WAVE" {
		return nil, fmt.Errorf("%w: missing RIFF/WAVE header", ErrMalformedWAV)
	}

	info := new(WAVInfo)
	hasFmt, hasData := false, false
	var hdr [8]byte
	for !(hasFmt && hasData) {
		if _, err := io.ReadFull(f, hdr[:]); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedWAV, err)
		}
		id := string(hdr[0:4])
		size := binary.LittleEndian.Uint32(hdr[4:8])

		switch id {
		case "fmt ":
			if size < 16 {
				return nil, fmt.Errorf("%w: fmt chunk too small", ErrMalformedWAV)
			}
			buf := make([]byte, size)
			if _, err := io.ReadFull(f, buf); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrMalformedWAV, err)
			}
			info.AudioFormat = binary.LittleEndian.Uint16(buf[0:2])
			info.Channels = binary.LittleEndian.Uint16(buf[2:4])
			info.SampleRate = binary.LittleEndian.Uint32(buf[4:8])
			info.ByteRate = binary.LittleEndian.Uint32(buf[8:12])
			info.BlockAlign = binary.LittleEndian.Uint16(buf[12:14])
			info.BitsPerSample = binary.LittleEndian.Uint16(buf[14:16])
			hasFmt = true
		case "data":
			info.DataSize = size
			hasData = true
		default:
			// chunks are word aligned
			skip := int64(size) + int64(size%2)
			if _, err := f.Seek(skip, io.SeekCurrent); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrMalformedWAV, err)
			}
		}
		if id == "fmt " && size%2 == 1 {
			if _, err := f.Seek(1, io.SeekCurrent); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrMalformedWAV, err)
			}
		}
		if id == "data" && !hasFmt {
			return nil, fmt.Errorf("%w: data chunk before fmt chunk", ErrMalformedWAV)
		}
	}

	return info, nil
}

// ValidateCanonical checks that the file is mono 16 bit linear PCM at sampleRate.
func (i *WAVInfo) ValidateCanonical(sampleRate int) error {
	if i.AudioFormat != wavFormatPCM && i.AudioFormat != wavFormatExtensible {
		return fmt.Errorf("%w: audio format %d is not PCM", ErrMalformedWAV, i.AudioFormat)
	}
	if i.Channels != 1 {
		return fmt.Errorf("%w: expected 1 channel, got %d", ErrMalformedWAV, i.Channels)
	}
	if i.BitsPerSample != 16 {
		return fmt.Errorf("%w: expected 16 bits per sample, got %d", ErrMalformedWAV, i.BitsPerSample)
	}
	if int(i.SampleRate) != sampleRate {
		return fmt.Errorf("%w: expected sample rate %d, got %d", ErrMalformedWAV, sampleRate, i.SampleRate)
	}
	if i.DataSize == 0 {
		return fmt.Errorf("%w: no audio data", ErrMalformedWAV)
	}
	return nil
}
