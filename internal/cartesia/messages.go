package cartesia

import (
	"encoding/base64"
	"encoding/json"
	"strings"
)

// Voice references a voice by mode; only "id" is used.
type Voice struct {
	Mode string `json:"mode"`
	ID   string `json:"id"`
}

// OutputFormat asks for headerless PCM so audio can be re-wrapped locally.
type OutputFormat struct {
	Container  string `json:"container"`
	Encoding   string `json:"encoding"`
	SampleRate int    `json:"sample_rate"`
}

// GenerationRequest is one transcript chunk sent for a context.
type GenerationRequest struct {
	ModelID       string       `json:"model_id"`
	Transcript    string       `json:"transcript"`
	Voice         Voice        `json:"voice"`
	Language      string       `json:"language"`
	ContextID     string       `json:"context_id"`
	OutputFormat  OutputFormat `json:"output_format"`
	AddTimestamps bool         `json:"add_timestamps"`
	Continue      bool         `json:"continue"`
}

// CancelRequest stops generation for a context. Sending it twice is harmless.
type CancelRequest struct {
	ContextID string `json:"context_id"`
	Cancel    bool   `json:"cancel"`
}

const (
	ContainerRaw   = "raw"
	EncodingPCM16  = "pcm_s16le"
	VoiceModeID    = "id"
	MaxMessageSize = 8 * 1024 * 1024
)

type MessageType string

const (
	MessageChunk MessageType = "chunk"
	MessageDone  MessageType = "done"
	MessageError MessageType = "error"
)

// Message is one decoded server message. Audio holds raw PCM for chunk
// messages; Error is set for error messages. Malformed marks error messages
// synthesized from a payload that could not be decoded.
type Message struct {
	Type       MessageType
	ContextID  string
	Audio      []byte
	Error      string
	StatusCode int
	Done       bool
	Malformed  bool
}

type serverMessage struct {
	Type       string          `json:"type"`
	ContextID  string          `json:"context_id"`
	Data       string          `json:"data"`
	Done       bool            `json:"done"`
	StatusCode int             `json:"status_code"`
	Error      json.RawMessage `json:"error"`
}

const (
	errInvalidJSON   = "invalid JSON from server"
	errInvalidBase64 = "invalid base64 audio from server"
)

// ParseMessage decodes a raw server frame. Anything malformed becomes an
// error message rather than a Go error, so callers always get a usable
// Message.
func ParseMessage(raw []byte) Message {
	var m serverMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return Message{Type: MessageError, Error: errInvalidJSON, Malformed: true}
	}

	msg := Message{
		Type:       MessageType(m.Type),
		ContextID:  m.ContextID,
		StatusCode: m.StatusCode,
		Done:       m.Done,
	}

	switch msg.Type {
	case MessageChunk:
		pcm, err := base64.StdEncoding.DecodeString(m.Data)
		if err != nil {
			return Message{Type: MessageError, ContextID: m.ContextID, Error: errInvalidBase64, Malformed: true}
		}
		msg.Audio = pcm
	case MessageError:
		msg.Error = errorText(m.Error)
	}
	return msg
}

// errorText accepts both a plain string and a structured error object.
func errorText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return "error"
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if s == "" {
			return "error"
		}
		return s
	}
	var obj struct {
		Message string `json:"message"`
		Title   string `json:"title"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		if obj.Message != "" {
			return obj.Message
		}
		if obj.Title != "" {
			return obj.Title
		}
	}
	return strings.TrimSpace(string(raw))
}
