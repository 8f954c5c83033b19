package realtime

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/pion/webrtc/v3"
)

type countingCapture struct {
	track *webrtc.TrackLocalStaticSample
	stops *atomic.Int32
}

func (c *countingCapture) Track() webrtc.TrackLocal { return c.track }

func (c *countingCapture) Stop() error {
	c.stops.Add(1)
	return nil
}

type fakeDevices struct {
	denied  error
	opened  atomic.Int32
	stopped atomic.Int32
}

func (d *fakeDevices) OpenCapture(context.Context) (Capture, error) {
	if d.denied != nil {
		return nil, d.denied
	}
	track, err := webrtc.NewTrackLocalStaticSample(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus}, "audio", "test")
	if err != nil {
		return nil, err
	}
	d.opened.Add(1)
	return &countingCapture{track: track, stops: &d.stopped}, nil
}

func (d *fakeDevices) OpenPlayback(track *webrtc.TrackRemote) (Playback, error) {
	return newDiscardPlayback(track), nil
}

func TestConnCaptureDenied(t *testing.T) {
	denied := errors.New("permission denied")
	devices := &fakeDevices{denied: denied}
	c := NewConn(ConnectConfig{Token: "ek", ICEServers: []string{}}, devices)

	err := c.Connect(context.Background(), Handlers{})
	if !errors.Is(err, denied) {
		t.Fatalf("Connect err = %v, want %v", err, denied)
	}
	if err := c.Connect(context.Background(), Handlers{}); !errors.Is(err, ErrClosed) {
		t.Fatalf("second Connect err = %v, want ErrClosed", err)
	}
}

func TestConnHandshakeRejected(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		if ct := r.Header.Get("Content-Type"); ct != "application/sdp" {
			t.Errorf("Content-Type = %q", ct)
		}
		if m := r.URL.Query().Get("model"); m != ModelGPT4oRealtimePreview20241217 {
			t.Errorf("model = %q", m)
		}
		http.Error(w, "expired token", http.StatusUnauthorized)
	}))
	defer srv.Close()

	devices := &fakeDevices{}
	c := NewConn(ConnectConfig{Token: "ek", HTTPURL: srv.URL, ICEServers: []string{}}, devices)

	err := c.Connect(context.Background(), Handlers{})
	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.HTTPStatus != http.StatusUnauthorized {
		t.Fatalf("Connect err = %v, want 401 *Error", err)
	}
	if got := requests.Load(); got != 1 {
		t.Errorf("requests = %d, want 1", got)
	}
	if got := devices.stopped.Load(); got != 1 {
		t.Errorf("capture stopped %d times, want 1", got)
	}

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := c.Disconnect(); err != nil {
				t.Errorf("Disconnect: %v", err)
			}
		}()
	}
	wg.Wait()
	if got := devices.stopped.Load(); got != 1 {
		t.Errorf("capture stopped %d times after repeated Disconnect, want 1", got)
	}
}

func TestConnDisconnectBeforeConnect(t *testing.T) {
	devices := &fakeDevices{}
	c := NewConn(ConnectConfig{Token: "ek", ICEServers: []string{}}, devices)
	if err := c.Disconnect(); err != nil {
		t.Fatalf("Disconnect: %v", err)
	}
	if err := c.Connect(context.Background(), Handlers{}); !errors.Is(err, ErrClosed) {
		t.Fatalf("Connect err = %v, want ErrClosed", err)
	}
	if got := devices.opened.Load(); got != 0 {
		t.Errorf("capture opened %d times, want 0", got)
	}
}

func TestConnSendAfterDisconnect(t *testing.T) {
	c := NewConn(ConnectConfig{Token: "ek"}, &fakeDevices{})
	c.Disconnect()
	if err := c.Send(map[string]any{"type": "response.create"}); !errors.Is(err, ErrClosed) {
		t.Fatalf("Send err = %v, want ErrClosed", err)
	}
}

func TestFileDevicesMissingCapture(t *testing.T) {
	_, err := FileDevices{CapturePath: "/nonexistent/mic.ogg"}.OpenCapture(context.Background())
	if !errors.Is(err, ErrCaptureUnavailable) {
		t.Fatalf("err = %v, want ErrCaptureUnavailable", err)
	}
}

func TestFileDevicesSilentCapture(t *testing.T) {
	c, err := FileDevices{}.OpenCapture(context.Background())
	if err != nil {
		t.Fatalf("OpenCapture: %v", err)
	}
	if c.Track() == nil {
		t.Fatal("Track() = nil")
	}
	if err := c.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if err := c.Stop(); err != nil {
		t.Fatalf("second Stop: %v", err)
	}
}
