package realtime

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"

	"github.com/google/uuid"
	"github.com/pion/webrtc/v3"
)

// ConnectConfig contains what one Realtime connection needs.
type ConnectConfig struct {
	// Token is the ephemeral client secret (or an API key).
	Token string

	// Model defaults to ModelGPT4oRealtimePreview20241217.
	Model string

	// Voice defaults to VoiceAlloy.
	Voice string

	// Instructions is sent in session.update once the data channel opens.
	Instructions string

	// HTTPURL defaults to DefaultHTTPURL.
	HTTPURL string

	HTTPClient *http.Client

	// ICEServers defaults to DefaultICEServer when nil. An empty non-nil
	// slice gathers host candidates only.
	ICEServers []string
}

// Handlers receive asynchronous notifications from a Conn. Each may be nil.
// They run on pion goroutines and must not block.
type Handlers struct {
	// OnMessage receives every data channel message in arrival order.
	OnMessage func(raw []byte)

	// OnError receives failures that do not end the connection.
	OnError func(err error)

	// OnClosed is called when the peer connection fails or closes without
	// Disconnect having been called.
	OnClosed func(err error)
}

type connState int

const (
	connIdle connState = iota
	connConnecting
	connConnected
	connClosed
)

// Conn is a single WebRTC connection attempt. It cannot be reused after
// Disconnect; create a new Conn for a new session.
type Conn struct {
	cfg     ConnectConfig
	devices MediaDevices

	mu       sync.Mutex
	state    connState
	handlers Handlers
	capture  Capture
	pc       *webrtc.PeerConnection
	dc       *webrtc.DataChannel
	playback Playback
}

// NewConn creates an unconnected Conn.
func NewConn(cfg ConnectConfig, devices MediaDevices) *Conn {
	if cfg.Model == "" {
		cfg.Model = ModelGPT4oRealtimePreview20241217
	}
	if cfg.Voice == "" {
		cfg.Voice = VoiceAlloy
	}
	if cfg.HTTPURL == "" {
		cfg.HTTPURL = DefaultHTTPURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	if cfg.ICEServers == nil {
		cfg.ICEServers = []string{DefaultICEServer}
	}
	if devices == nil {
		devices = FileDevices{}
	}
	return &Conn{cfg: cfg, devices: devices}
}

// Connect performs the handshake. It returns ErrAlreadyConnected when called
// twice and ErrClosed when Disconnect ran before or during the handshake.
// Every resource acquired by a failed handshake is released before Connect
// returns.
func (c *Conn) Connect(ctx context.Context, h Handlers) error {
	c.mu.Lock()
	switch c.state {
	case connClosed:
		c.mu.Unlock()
		return ErrClosed
	case connConnecting, connConnected:
		c.mu.Unlock()
		return ErrAlreadyConnected
	}
	c.state = connConnecting
	c.handlers = h
	c.mu.Unlock()

	if err := c.handshake(ctx); err != nil {
		_ = c.Disconnect()
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == connClosed {
		return ErrClosed
	}
	c.state = connConnected
	return nil
}

func (c *Conn) handshake(ctx context.Context) error {
	// Step 1: acquire the audio input
	capture, err := c.devices.OpenCapture(ctx)
	if err != nil {
		return fmt.Errorf("open capture: %w", err)
	}
	if !c.hold(func() { c.capture = capture }) {
		_ = capture.Stop()
		return ErrClosed
	}

	// Step 2: create the peer connection
	var pcConfig webrtc.Configuration
	if len(c.cfg.ICEServers) > 0 {
		pcConfig.ICEServers = []webrtc.ICEServer{{URLs: c.cfg.ICEServers}}
	}
	pc, err := webrtc.NewPeerConnection(pcConfig)
	if err != nil {
		return fmt.Errorf("create peer connection: %w", err)
	}
	if !c.hold(func() { c.pc = pc }) {
		_ = pc.Close()
		return ErrClosed
	}

	if _, err := pc.AddTrack(capture.Track()); err != nil {
		return fmt.Errorf("add capture track: %w", err)
	}

	pc.OnTrack(func(track *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
		slog.Debug("received remote track", "kind", track.Kind(), "codec", track.Codec().MimeType)
		if track.Kind() != webrtc.RTPCodecTypeAudio {
			return
		}
		playback, err := c.devices.OpenPlayback(track)
		if err != nil {
			c.reportError(fmt.Errorf("open playback: %w", err))
			return
		}
		if !c.hold(func() { c.playback = playback }) {
			_ = playback.Close()
		}
	})

	pc.OnConnectionStateChange(func(s webrtc.PeerConnectionState) {
		slog.Debug("peer connection state", "state", s.String())
		switch s {
		case webrtc.PeerConnectionStateFailed, webrtc.PeerConnectionStateClosed:
			c.mu.Lock()
			closed := c.state == connClosed
			onClosed := c.handlers.OnClosed
			c.mu.Unlock()
			if !closed && onClosed != nil {
				onClosed(fmt.Errorf("realtime: peer connection %s", s))
			}
		}
	})

	// Step 3: data channel for events
	dc, err := pc.CreateDataChannel("oai-events", nil)
	if err != nil {
		return fmt.Errorf("create data channel: %w", err)
	}
	if !c.hold(func() { c.dc = dc }) {
		_ = dc.Close()
		return ErrClosed
	}
	dc.OnOpen(func() {
		slog.Debug("data channel opened")
		if err := c.Send(SessionUpdate(DefaultSessionConfig(c.cfg.Instructions, c.cfg.Voice))); err != nil {
			c.reportError(fmt.Errorf("configure session: %w", err))
		}
	})
	dc.OnMessage(func(msg webrtc.DataChannelMessage) {
		if slog.Default().Enabled(context.Background(), slog.LevelDebug) {
			s := string(msg.Data)
			if len(s) > 1000 {
				s = s[:1000] + "..."
			}
			slog.Debug("received message", "len", len(msg.Data), "content", s)
		}
		c.mu.Lock()
		closed := c.state == connClosed
		onMessage := c.handlers.OnMessage
		c.mu.Unlock()
		if !closed && onMessage != nil {
			onMessage(msg.Data)
		}
	})
	dc.OnClose(func() {
		slog.Debug("data channel closed")
	})

	// Step 4: offer, ICE gathering, SDP exchange
	offer, err := pc.CreateOffer(nil)
	if err != nil {
		return fmt.Errorf("create offer: %w", err)
	}
	gatherComplete := webrtc.GatheringCompletePromise(pc)
	if err := pc.SetLocalDescription(offer); err != nil {
		return fmt.Errorf("set local description: %w", err)
	}
	select {
	case <-gatherComplete:
	case <-ctx.Done():
		return ctx.Err()
	}

	answer, err := c.sendOffer(ctx, pc.LocalDescription().SDP)
	if err != nil {
		return fmt.Errorf("send offer: %w", err)
	}
	if err := pc.SetRemoteDescription(webrtc.SessionDescription{
		Type: webrtc.SDPTypeAnswer,
		SDP:  answer,
	}); err != nil {
		return fmt.Errorf("set remote description: %w", err)
	}
	return nil
}

// hold stores an acquired resource unless the Conn was closed meanwhile.
func (c *Conn) hold(store func()) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == connClosed {
		return false
	}
	store()
	return true
}

// sendOffer posts the SDP offer and returns the answer.
func (c *Conn) sendOffer(ctx context.Context, sdp string) (string, error) {
	u := fmt.Sprintf("%s?model=%s", c.cfg.HTTPURL, url.QueryEscape(c.cfg.Model))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader([]byte(sdp)))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	req.Header.Set("Content-Type", "application/sdp")

	resp, err := c.cfg.HTTPClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", &Error{
			Code:       "sdp_exchange_failed",
			Message:    fmt.Sprintf("failed to exchange SDP: %s", string(body)),
			HTTPStatus: resp.StatusCode,
		}
	}

	answer, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(answer), nil
}

// Send writes a client event to the data channel.
func (c *Conn) Send(event map[string]any) error {
	c.mu.Lock()
	dc, state := c.dc, c.state
	c.mu.Unlock()
	if state == connClosed {
		return ErrClosed
	}
	if dc == nil || dc.ReadyState() != webrtc.DataChannelStateOpen {
		return errors.New("realtime: data channel not ready")
	}
	if _, ok := event["event_id"]; !ok {
		event["event_id"] = generateEventID()
	}
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	slog.Debug("sending event", "type", event["type"], "len", len(data))
	return dc.Send(data)
}

// Disconnect releases the capture device, the data channel, the peer
// connection and the playback sink. It is safe to call any number of times
// from any goroutine; only the first call releases anything.
func (c *Conn) Disconnect() error {
	c.mu.Lock()
	if c.state == connClosed {
		c.mu.Unlock()
		return nil
	}
	c.state = connClosed
	capture, dc, pc, playback := c.capture, c.dc, c.pc, c.playback
	c.capture, c.dc, c.pc, c.playback = nil, nil, nil, nil
	c.mu.Unlock()

	var errs []error
	if capture != nil {
		if err := capture.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stop capture: %w", err))
		}
	}
	if dc != nil {
		if err := dc.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close data channel: %w", err))
		}
	}
	if pc != nil {
		if err := pc.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close peer connection: %w", err))
		}
	}
	if playback != nil {
		if err := playback.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close playback: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (c *Conn) reportError(err error) {
	c.mu.Lock()
	closed := c.state == connClosed
	onError := c.handlers.OnError
	c.mu.Unlock()
	if closed {
		slog.Debug("dropping error after close", "error", err)
		return
	}
	if onError != nil {
		onError(err)
	}
}

// SessionUpdate builds a session.update client event.
func SessionUpdate(cfg *SessionConfig) map[string]any {
	return map[string]any{
		"event_id": generateEventID(),
		"type":     EventTypeSessionUpdate,
		"session":  cfg,
	}
}

func generateEventID() string {
	return "evt_" + uuid.New().String()[:12]
}
