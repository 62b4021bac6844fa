package player

import (
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	mp3 "github.com/hajimehoshi/go-mp3"
)

const bytesPerFrame = 4 // 16-bit stereo, the device's fixed output layout

// pcmStream is a decoded source: seekable interleaved 16-bit stereo PCM.
// go-mp3's decoder and the wav reader both satisfy it.
type pcmStream interface {
	io.ReadSeeker
	SampleRate() int
	Length() int64
}

// decodeAudio picks the decoder by content: RIFF bytes are WAV, everything
// else is handed to go-mp3.
func decodeAudio(raw []byte) (pcmStream, error) {
	if len(raw) >= 4 && string(raw[:4]) == "RIFF" {
		return newWAVStream(raw)
	}
	return mp3.NewDecoder(&seekableBuffer{data: raw})
}

// OtoDevice plays MP3 or WAV audio fetched over HTTP through the system
// output. One instance exists per process, created lazily by the Manager;
// creation fails in headless environments and the Manager hands out nil
// instead.
type OtoDevice struct {
	mu sync.Mutex

	ctx   *oto.Context
	ready chan struct{}
	httpc *http.Client

	src        string
	player     *oto.Player
	stream     pcmStream
	sampleRate int
	errFn      func(error)
}

func NewOtoDevice() (Device, error) {
	op := &oto.NewContextOptions{
		SampleRate:   44100,
		ChannelCount: 2,
		Format:       oto.FormatSignedInt16LE,
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("no audio output available: %w", err)
	}
	return &OtoDevice{
		ctx:   ctx,
		ready: ready,
		httpc: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func (d *OtoDevice) SetSource(url string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closePlayerLocked()
	d.src = url
	d.stream = nil
	d.sampleRate = 0
}

func (d *OtoDevice) Source() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.src
}

func (d *OtoDevice) SetErrorHandler(fn func(error)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.errFn = fn
}

// Play starts playback. Fetching and decoding run on their own goroutine;
// failures reach the error handler instead of the caller.
func (d *OtoDevice) Play() {
	go d.startPlayback()
}

func (d *OtoDevice) startPlayback() {
	d.mu.Lock()
	if d.player != nil {
		d.player.Play()
		d.mu.Unlock()
		return
	}
	src := d.src
	d.mu.Unlock()

	if src == "" {
		d.fail(fmt.Errorf("no source bound"))
		return
	}

	resp, err := d.httpc.Get(src)
	if err != nil {
		d.fail(fmt.Errorf("failed to fetch audio: %w", err))
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		d.fail(fmt.Errorf("failed to fetch audio: status %d", resp.StatusCode))
		return
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		d.fail(fmt.Errorf("failed to read audio: %w", err))
		return
	}

	stream, err := decodeAudio(raw)
	if err != nil {
		d.fail(fmt.Errorf("failed to decode audio: %w", err))
		return
	}

	<-d.ready

	d.mu.Lock()
	defer d.mu.Unlock()
	// the source may have been swapped while we were fetching
	if d.src != src {
		return
	}
	d.stream = stream
	d.sampleRate = stream.SampleRate()
	d.player = d.ctx.NewPlayer(stream)
	d.player.Play()
}

func (d *OtoDevice) Pause() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.player != nil && d.player.IsPlaying() {
		d.player.Pause()
	}
}

func (d *OtoDevice) SkipForward(seconds float64)  { d.seekBy(seconds) }
func (d *OtoDevice) SkipBackward(seconds float64) { d.seekBy(-seconds) }

func (d *OtoDevice) seekBy(seconds float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	dur := d.durationLocked()
	if d.player == nil || dur <= 0 {
		return
	}
	target := clampPosition(d.positionLocked()+seconds, dur)
	offset := int64(target*float64(d.sampleRate)) * bytesPerFrame
	if _, err := d.player.Seek(offset, io.SeekStart); err != nil && d.errFn != nil {
		d.errFn(fmt.Errorf("seek failed: %w", err))
	}
}

func (d *OtoDevice) CurrentPosition() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.positionLocked()
}

func (d *OtoDevice) Duration() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.durationLocked()
}

func (d *OtoDevice) Progress() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return progressPercent(d.positionLocked(), d.durationLocked())
}

func (d *OtoDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closePlayerLocked()
	return nil
}

func (d *OtoDevice) positionLocked() float64 {
	if d.stream == nil || d.sampleRate == 0 {
		return 0
	}
	consumed, err := d.stream.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0
	}
	if d.player != nil {
		consumed -= int64(d.player.BufferedSize())
	}
	if consumed < 0 {
		consumed = 0
	}
	return float64(consumed) / bytesPerFrame / float64(d.sampleRate)
}

func (d *OtoDevice) durationLocked() float64 {
	if d.stream == nil || d.sampleRate == 0 {
		return 0
	}
	return float64(d.stream.Length()) / bytesPerFrame / float64(d.sampleRate)
}

func (d *OtoDevice) closePlayerLocked() {
	if d.player != nil {
		_ = d.player.Close()
		d.player = nil
	}
}

func (d *OtoDevice) fail(err error) {
	d.mu.Lock()
	fn := d.errFn
	d.mu.Unlock()
	if fn != nil {
		fn(err)
	}
}

// seekableBuffer adapts a byte slice to the io.ReadSeeker go-mp3 wants.
type seekableBuffer struct {
	data []byte
	off  int64
}

func (b *seekableBuffer) Read(p []byte) (int, error) {
	if b.off >= int64(len(b.data)) {
		return 0, io.EOF
	}
	n := copy(p, b.data[b.off:])
	b.off += int64(n)
	return n, nil
}

func (b *seekableBuffer) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
		b.off = offset
	case io.SeekCurrent:
		b.off += offset
	case io.SeekEnd:
		b.off = int64(len(b.data)) + offset
	}
	if b.off < 0 {
		return 0, fmt.Errorf("negative offset")
	}
	return b.off, nil
}
