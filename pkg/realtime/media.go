package realtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/pion/rtp"
	"github.com/pion/webrtc/v3"
	"github.com/pion/webrtc/v3/pkg/media"
	"github.com/pion/webrtc/v3/pkg/media/oggreader"
	"github.com/pion/webrtc/v3/pkg/media/oggwriter"
)

// MediaDevices acquires the audio input and creates sinks for inbound audio.
type MediaDevices interface {
	// OpenCapture acquires the audio input. Errors are reported to the
	// caller of Conn.Connect.
	OpenCapture(ctx context.Context) (Capture, error)

	// OpenPlayback starts consuming a remote audio track.
	OpenPlayback(track *webrtc.TrackRemote) (Playback, error)
}

// Capture is an acquired audio input.
type Capture interface {
	Track() webrtc.TrackLocal
	Stop() error
}

// Playback is a sink consuming inbound audio.
type Playback interface {
	Close() error
}

// FileDevices uses Ogg/Opus files in place of a microphone and speaker.
// An empty CapturePath yields a silent capture track; an empty RecordPath
// discards inbound audio.
type FileDevices struct {
	CapturePath string
	RecordPath  string
}

// OpenCapture implements MediaDevices.
func (d FileDevices) OpenCapture(ctx context.Context) (Capture, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	track, err := webrtc.NewTrackLocalStaticSample(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus},
		"audio", "twino",
	)
	if err != nil {
		return nil, fmt.Errorf("create capture track: %w", err)
	}
	if d.CapturePath == "" {
		return &oggCapture{track: track, done: closedChan()}, nil
	}
	f, err := os.Open(d.CapturePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCaptureUnavailable, err)
	}
	reader, _, err := oggreader.NewWith(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %s: %w", ErrCaptureUnavailable, d.CapturePath, err)
	}
	c := &oggCapture{
		track:  track,
		file:   f,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
		reader: reader,
	}
	go c.pump()
	return c, nil
}

// OpenPlayback implements MediaDevices.
func (d FileDevices) OpenPlayback(track *webrtc.TrackRemote) (Playback, error) {
	if d.RecordPath == "" {
		return newDiscardPlayback(track), nil
	}
	return NewOggRecorder(track, d.RecordPath)
}

func closedChan() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

// oggCapture paces Ogg pages onto a sample track by granule position.
type oggCapture struct {
	track    *webrtc.TrackLocalStaticSample
	file     *os.File
	reader   *oggreader.OggReader
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func (c *oggCapture) Track() webrtc.TrackLocal {
	return c.track
}

func (c *oggCapture) pump() {
	defer close(c.done)

	// Opus frames are 20ms; one Ogg page usually carries one frame.
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()

	var lastGranule uint64
	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
		}
		page, header, err := c.reader.ParseNextPage()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				slog.Warn("capture read failed", "error", err)
			}
			return
		}
		samples := header.GranulePosition - lastGranule
		lastGranule = header.GranulePosition
		duration := time.Duration(float64(samples)/48000*1000) * time.Millisecond
		if err := c.track.WriteSample(media.Sample{Data: page, Duration: duration}); err != nil {
			slog.Warn("capture write failed", "error", err)
			return
		}
	}
}

func (c *oggCapture) Stop() error {
	var err error
	c.stopOnce.Do(func() {
		if c.stop != nil {
			close(c.stop)
		}
		<-c.done
		if c.file != nil {
			err = c.file.Close()
		}
	})
	return err
}

// OggRecorder writes a remote Opus track to an Ogg file.
type OggRecorder struct {
	mu      sync.Mutex
	writer  *oggwriter.OggWriter
	closed  bool
	stats   RecorderStats
	lastSeq uint16
}

// RecorderStats counts received RTP packets and sequence gaps.
type RecorderStats struct {
	Packets int
	Lost    int
}

// NewOggRecorder starts recording track into path.
func NewOggRecorder(track *webrtc.TrackRemote, path string) (*OggRecorder, error) {
	w, err := oggwriter.New(path, 48000, 2)
	if err != nil {
		return nil, fmt.Errorf("create recording %s: %w", path, err)
	}
	r := &OggRecorder{writer: w}
	go r.record(track)
	return r, nil
}

func (r *OggRecorder) record(track *webrtc.TrackRemote) {
	for {
		pkt, _, err := track.ReadRTP()
		if err != nil {
			return
		}
		r.mu.Lock()
		if r.closed {
			r.mu.Unlock()
			return
		}
		r.observe(pkt)
		err = r.writer.WriteRTP(pkt)
		r.mu.Unlock()
		if err != nil {
			slog.Warn("recording write failed", "error", err)
			return
		}
	}
}

func (r *OggRecorder) observe(pkt *rtp.Packet) {
	if r.stats.Packets > 0 {
		if gap := pkt.SequenceNumber - r.lastSeq; gap > 1 && gap < 1<<15 {
			r.stats.Lost += int(gap - 1)
		}
	}
	r.lastSeq = pkt.SequenceNumber
	r.stats.Packets++
}

// Stats returns the packet counters recorded so far.
func (r *OggRecorder) Stats() RecorderStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

// Close finalizes the Ogg file.
func (r *OggRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	return r.writer.Close()
}

// discardPlayback drains a remote track so its buffers do not fill up.
type discardPlayback struct {
	closed chan struct{}
	once   sync.Once
}

func newDiscardPlayback(track *webrtc.TrackRemote) *discardPlayback {
	p := &discardPlayback{closed: make(chan struct{})}
	go func() {
		buf := make([]byte, 1500)
		for {
			select {
			case <-p.closed:
				return
			default:
			}
			if _, _, err := track.Read(buf); err != nil {
				return
			}
		}
	}()
	return p
}

func (p *discardPlayback) Close() error {
	p.once.Do(func() { close(p.closed) })
	return nil
}
