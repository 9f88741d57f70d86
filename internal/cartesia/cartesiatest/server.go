// Package cartesiatest provides an in-process fake of the Cartesia TTS
// websocket for tests.
package cartesiatest

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dooshek/sonicstream/internal/cartesia"
	"github.com/gorilla/websocket"
)

// Frame is one client frame as received by the fake.
type Frame struct {
	Request *cartesia.GenerationRequest
	Cancel  *cartesia.CancelRequest
	Raw     []byte
}

// Handler scripts the server side of one connection. The connection is
// closed when it returns.
type Handler func(c *Conn)

// Server is a websocket server speaking the Cartesia frame format.
type Server struct {
	*httptest.Server

	mu      sync.Mutex
	frames  []Frame
	queries []url.Values
	wg      sync.WaitGroup
}

// NewServer starts a fake running h for every connection. Callers must
// Close it.
func NewServer(h Handler) *Server {
	s := &Server{}
	upgrader := websocket.Upgrader{}

	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.wg.Add(1)
		defer s.wg.Done()

		s.mu.Lock()
		s.queries = append(s.queries, r.URL.Query())
		s.mu.Unlock()

		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()

		h(&Conn{ws: ws, srv: s})
	}))
	return s
}

// Endpoint returns the ws:// URL of the fake.
func (s *Server) Endpoint() string {
	return "ws" + strings.TrimPrefix(s.Server.URL, "http")
}

// WaitIdle waits for every handler to return.
func (s *Server) WaitIdle(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}

// Frames returns every frame read by handlers so far, in order.
func (s *Server) Frames() []Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Frame(nil), s.frames...)
}

// Requests returns only the generation requests.
func (s *Server) Requests() []cartesia.GenerationRequest {
	var out []cartesia.GenerationRequest
	for _, f := range s.Frames() {
		if f.Request != nil {
			out = append(out, *f.Request)
		}
	}
	return out
}

// Cancels returns only the cancel frames.
func (s *Server) Cancels() []cartesia.CancelRequest {
	var out []cartesia.CancelRequest
	for _, f := range s.Frames() {
		if f.Cancel != nil {
			out = append(out, *f.Cancel)
		}
	}
	return out
}

// Queries returns the query parameters of every connection attempt.
func (s *Server) Queries() []url.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]url.Values(nil), s.queries...)
}

// Conn is the server side of one connection.
type Conn struct {
	ws  *websocket.Conn
	srv *Server
}

// ReadFrame reads and records one client frame.
func (c *Conn) ReadFrame() (Frame, error) {
	_, raw, err := c.ws.ReadMessage()
	if err != nil {
		return Frame{}, err
	}

	f := Frame{Raw: raw}
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err == nil {
		if _, ok := probe["cancel"]; ok {
			var cr cartesia.CancelRequest
			if json.Unmarshal(raw, &cr) == nil {
				f.Cancel = &cr
			}
		} else {
			var gr cartesia.GenerationRequest
			if json.Unmarshal(raw, &gr) == nil {
				f.Request = &gr
			}
		}
	}

	c.srv.mu.Lock()
	c.srv.frames = append(c.srv.frames, f)
	c.srv.mu.Unlock()
	return f, nil
}

// ReadRequests reads frames until a generation request with continue=false
// arrives and returns the requests read.
func (c *Conn) ReadRequests() ([]cartesia.GenerationRequest, error) {
	var out []cartesia.GenerationRequest
	for {
		f, err := c.ReadFrame()
		if err != nil {
			return out, err
		}
		if f.Request == nil {
			continue
		}
		out = append(out, *f.Request)
		if !f.Request.Continue {
			return out, nil
		}
	}
}

// Drain reads and records frames until the client goes away.
func (c *Conn) Drain() {
	for {
		if _, err := c.ReadFrame(); err != nil {
			return
		}
	}
}

// SendAudio sends a chunk message carrying pcm.
func (c *Conn) SendAudio(contextID string, pcm []byte) error {
	return c.ws.WriteJSON(map[string]interface{}{
		"type":        "chunk",
		"context_id":  contextID,
		"data":        base64.StdEncoding.EncodeToString(pcm),
		"done":        false,
		"status_code": 206,
		"step_time":   12.5,
	})
}

// SendDone sends the terminal done message for contextID.
func (c *Conn) SendDone(contextID string) error {
	return c.ws.WriteJSON(map[string]interface{}{
		"type":        "done",
		"context_id":  contextID,
		"done":        true,
		"status_code": 206,
	})
}

// SendError sends an error message for contextID.
func (c *Conn) SendError(contextID, message string) error {
	return c.ws.WriteJSON(map[string]interface{}{
		"type":        "error",
		"context_id":  contextID,
		"error":       message,
		"done":        true,
		"status_code": 400,
	})
}

// SendRaw sends data as a text frame unchanged.
func (c *Conn) SendRaw(data []byte) error {
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

// Close closes the underlying socket without a close handshake.
func (c *Conn) Close() error {
	return c.ws.Close()
}
