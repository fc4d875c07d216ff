package media

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// buildWAV renders a PCM WAV file. extra chunks are written between the
// fmt and data chunks the way some encoders add LIST metadata.
func buildWAV(sampleRate uint32, channels, bits uint16, samples []int16, extra ...[]byte) []byte {
	var data bytes.Buffer
	_ = binary.Write(&data, binary.LittleEndian, samples)

	var body bytes.Buffer
	body.WriteString("WAVE")
	body.WriteString("fmt ")
	_ = binary.Write(&body, binary.LittleEndian, uint32(16))
	_ = binary.Write(&body, binary.LittleEndian, uint16(wavFormatPCM))
	_ = binary.Write(&body, binary.LittleEndian, channels)
	_ = binary.Write(&body, binary.LittleEndian, sampleRate)
	_ = binary.Write(&body, binary.LittleEndian, sampleRate*uint32(channels)*uint32(bits/8))
	_ = binary.Write(&body, binary.LittleEndian, channels*(bits/8))
	_ = binary.Write(&body, binary.LittleEndian, bits)
	for _, chunk := range extra {
		body.Write(chunk)
	}
	body.WriteString("data")
	_ = binary.Write(&body, binary.LittleEndian, uint32(data.Len()))
	body.Write(data.Bytes())

	var out bytes.Buffer
	out.WriteString("RIFF")
	_ = binary.Write(&out, binary.LittleEndian, uint32(body.Len()))
	out.Write(body.Bytes())
	return out.Bytes()
}

func listChunk(payload string) []byte {
	var b bytes.Buffer
	b.WriteString("LIST")
	_ = binary.Write(&b, binary.LittleEndian, uint32(len(payload)))
	b.WriteString(payload)
	if len(payload)%2 == 1 {
		b.WriteByte(0)
	}
	return b.Bytes()
}

func testSamples(n int) []int16 {
	s := make([]int16, n)
	for i := range s {
		s[i] = int16(i % 128)
	}
	return s
}

func writeFile(t *testing.T, name string, content []byte) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, content, 0644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestReadWAVInfo(t *testing.T) {
	tests := []struct {
		name       string
		content    []byte
		wantErr    bool
		validErr   bool
		sampleRate int
	}{
		{
			name:       "canonical",
			content:    buildWAV(16000, 1, 16, testSamples(160)),
			sampleRate: 16000,
		},
		{
			name:       "skips list chunk with odd size",
			content:    buildWAV(16000, 1, 16, testSamples(160), listChunk("INFOISF")),
			sampleRate: 16000,
		},
		{
			name:       "stereo is not canonical",
			content:    buildWAV(16000, 2, 16, testSamples(320)),
			sampleRate: 16000,
			validErr:   true,
		},
		{
			name:       "wrong sample rate",
			content:    buildWAV(44100, 1, 16, testSamples(441)),
			sampleRate: 16000,
			validErr:   true,
		},
		{
			name:       "no samples",
			content:    buildWAV(16000, 1, 16, nil),
			sampleRate: 16000,
			validErr:   true,
		},
		{
			name:    "not a wav file",
			content: []byte("ID3\x03\x00\x00\x00\x00\x00\x00mp3 data"),
			wantErr: true,
		},
		{
			name:    "truncated",
			content: buildWAV(16000, 1, 16, testSamples(10))[:20],
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := writeFile(t, "audio.wav", tt.content)
			info, err := ReadWAVInfo(p)
			if tt.wantErr {
				if !errors.Is(err, ErrMalformedWAV) {
					t.Fatalf("expected ErrMalformedWAV, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ReadWAVInfo() error = %v", err)
			}

			err = info.ValidateCanonical(tt.sampleRate)
			if tt.validErr != (err != nil) {
				t.Fatalf("ValidateCanonical() error = %v, want error %v", err, tt.validErr)
			}
		})
	}
}

func TestReadWAVInfo_Fields(t *testing.T) {
	p := writeFile(t, "audio.wav", buildWAV(16000, 1, 16, testSamples(100)))
	info, err := ReadWAVInfo(p)
	if err != nil {
		t.Fatal(err)
	}
	if info.DataSize != 200 || info.ByteRate != 32000 || info.BlockAlign != 2 {
		t.Errorf("unexpected header values: %+v", info)
	}
}
