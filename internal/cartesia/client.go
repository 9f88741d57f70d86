// Package cartesia speaks the Cartesia streaming TTS websocket protocol.
// One Conn carries one synthesis context; there is no reconnection.
package cartesia

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/dooshek/sonicstream/internal/errors"
	"github.com/dooshek/sonicstream/internal/logger"
	"github.com/dooshek/sonicstream/internal/types"
	"github.com/gorilla/websocket"
)

const closeGrace = time.Second

// Client builds connections for a fixed configuration.
type Client struct {
	cfg    types.TTSConfig
	dialer websocket.Dialer
}

// NewClient returns a client for cfg. Unset optional fields get defaults.
func NewClient(cfg types.TTSConfig) *Client {
	cfg = cfg.WithDefaults()
	return &Client{
		cfg: cfg,
		dialer: websocket.Dialer{
			HandshakeTimeout: cfg.HandshakeTimeout,
		},
	}
}

// URL returns the websocket URL carrying the credential and API version.
func (c *Client) URL() (string, error) {
	u, err := url.Parse(c.cfg.Endpoint)
	if err != nil {
		return "", errors.Wrap(errors.KindConfig, "url", "invalid endpoint", err)
	}
	q := u.Query()
	q.Set("api_key", c.cfg.APIKey)
	q.Set("cartesia_version", c.cfg.Version)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Dial opens one websocket connection.
func (c *Client) Dial(ctx context.Context) (*Conn, error) {
	wsURL, err := c.URL()
	if err != nil {
		return nil, err
	}

	ws, resp, err := c.dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		if resp != nil {
			err = fmt.Errorf("%w (http status %d)", err, resp.StatusCode)
		}
		return nil, errors.Wrap(errors.KindConnection, "dial", "failed to connect to TTS service", err)
	}
	ws.SetReadLimit(MaxMessageSize)

	logger.Debugf("WebSocket connected to %s", c.cfg.Endpoint)
	return &Conn{ws: ws, cfg: c.cfg}, nil
}

// Conn is a single websocket connection. Sends and receives must each come
// from one goroutine at a time.
type Conn struct {
	ws        *websocket.Conn
	cfg       types.TTSConfig
	closeOnce sync.Once
	closeErr  error
}

// SendChunk sends one transcript chunk for contextID. cont tells the
// service more text follows in the same context.
func (c *Conn) SendChunk(transcript, contextID string, cont bool) error {
	req := GenerationRequest{
		ModelID:    c.cfg.ModelID,
		Transcript: transcript,
		Voice:      Voice{Mode: VoiceModeID, ID: c.cfg.VoiceID},
		Language:   c.cfg.Language,
		ContextID:  contextID,
		OutputFormat: OutputFormat{
			Container:  ContainerRaw,
			Encoding:   EncodingPCM16,
			SampleRate: c.cfg.SampleRate,
		},
		AddTimestamps: false,
		Continue:      cont,
	}
	if err := c.write(req); err != nil {
		return errors.Wrap(errors.KindTransport, "send", "failed to send transcript chunk", err)
	}
	return nil
}

// Cancel asks the service to stop generating for contextID. It is best
// effort and never retried.
func (c *Conn) Cancel(contextID string) error {
	if err := c.write(CancelRequest{ContextID: contextID, Cancel: true}); err != nil {
		return errors.Wrap(errors.KindTransport, "cancel", "failed to send cancel", err)
	}
	return nil
}

// Receive reads exactly one server message. Malformed payloads come back
// as MessageError; only read failures are returned as errors.
func (c *Conn) Receive() (Message, error) {
	if c.cfg.ReadTimeout > 0 {
		if err := c.ws.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout)); err != nil {
			return Message{}, errors.Wrap(errors.KindTransport, "receive", "failed to set read deadline", err)
		}
	}

	_, raw, err := c.ws.ReadMessage()
	if err != nil {
		return Message{}, errors.Wrap(errors.KindTransport, "receive", "failed to read message", err)
	}
	return ParseMessage(raw), nil
}

// Close sends a close frame and releases the socket. Safe to call more
// than once.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeGrace))
		c.closeErr = c.ws.Close()
	})
	return c.closeErr
}

func (c *Conn) write(v interface{}) error {
	if c.cfg.WriteTimeout > 0 {
		if err := c.ws.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout)); err != nil {
			return err
		}
	}
	return c.ws.WriteJSON(v)
}
