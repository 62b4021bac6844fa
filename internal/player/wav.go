package player

import (
	"encoding/binary"
	"fmt"
	"io"
)

// wavStream serves the PCM of a RIFF/WAVE file as interleaved 16-bit stereo,
// the layout the output device expects. Mono input is widened by duplicating
// each sample into both channels.
type wavStream struct {
	data       []byte
	sampleRate int
	off        int64
}

func newWAVStream(raw []byte) (*wavStream, error) {
	if len(raw) < 12 || string(raw[0:4]) != "RIFF" || string(raw[8:12]) != "WAVE" {
		return nil, fmt.Errorf("not a RIFF/WAVE file")
	}

	var (
		sampleRate int
		channels   int
		bits       int
		pcm        []byte
	)
	for pos := 12; pos+8 <= len(raw); {
		id := string(raw[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(raw[pos+4 : pos+8]))
		body := pos + 8
		if body+size > len(raw) {
			size = len(raw) - body
		}
		switch id {
		case "fmt ":
			if size < 16 {
				return nil, fmt.Errorf("short fmt chunk")
			}
			format := int(binary.LittleEndian.Uint16(raw[body : body+2]))
			if format != 1 {
				return nil, fmt.Errorf("unsupported wav encoding %d, want PCM", format)
			}
			channels = int(binary.LittleEndian.Uint16(raw[body+2 : body+4]))
			sampleRate = int(binary.LittleEndian.Uint32(raw[body+4 : body+8]))
			bits = int(binary.LittleEndian.Uint16(raw[body+14 : body+16]))
		case "data":
			pcm = raw[body : body+size]
		}
		pos = body + size
		if size%2 == 1 {
			// chunks are word aligned
			pos++
		}
	}

	if sampleRate == 0 || pcm == nil {
		return nil, fmt.Errorf("missing fmt or data chunk")
	}
	if bits != 16 {
		return nil, fmt.Errorf("unsupported wav bit depth %d, want 16", bits)
	}

	switch channels {
	case 2:
	case 1:
		widened := make([]byte, 0, len(pcm)*2)
		for i := 0; i+1 < len(pcm); i += 2 {
			widened = append(widened, pcm[i], pcm[i+1], pcm[i], pcm[i+1])
		}
		pcm = widened
	default:
		return nil, fmt.Errorf("unsupported wav channel count %d", channels)
	}

	return &wavStream{data: pcm, sampleRate: sampleRate}, nil
}

func (w *wavStream) SampleRate() int { return w.sampleRate }

func (w *wavStream) Length() int64 { return int64(len(w.data)) }

func (w *wavStream) Read(p []byte) (int, error) {
	if w.off >= int64(len(w.data)) {
		return 0, io.EOF
	}
	n := copy(p, w.data[w.off:])
	w.off += int64(n)
	return n, nil
}

func (w *wavStream) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
		w.off = offset
	case io.SeekCurrent:
		w.off += offset
	case io.SeekEnd:
		w.off = int64(len(w.data)) + offset
	}
	if w.off < 0 {
		return 0, fmt.Errorf("negative offset")
	}
	return w.off, nil
}
