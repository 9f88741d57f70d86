package cartesia

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMessage(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Message
	}{
		{
			name: "audio chunk",
			raw:  `{"type":"chunk","context_id":"c1","data":"AQID","done":false,"status_code":206}`,
			want: Message{Type: MessageChunk, ContextID: "c1", Audio: []byte{1, 2, 3}, StatusCode: 206},
		},
		{
			name: "done",
			raw:  `{"type":"done","context_id":"c1","done":true,"status_code":206}`,
			want: Message{Type: MessageDone, ContextID: "c1", Done: true, StatusCode: 206},
		},
		{
			name: "error string",
			raw:  `{"type":"error","context_id":"c1","error":"bad voice","status_code":400}`,
			want: Message{Type: MessageError, ContextID: "c1", Error: "bad voice", StatusCode: 400},
		},
		{
			name: "error object",
			raw:  `{"type":"error","error":{"title":"Unauthorized","message":"invalid api key"}}`,
			want: Message{Type: MessageError, Error: "invalid api key"},
		},
		{
			name: "error object with title only",
			raw:  `{"type":"error","error":{"title":"Unauthorized"}}`,
			want: Message{Type: MessageError, Error: "Unauthorized"},
		},
		{
			name: "error without text",
			raw:  `{"type":"error"}`,
			want: Message{Type: MessageError, Error: "error"},
		},
		{
			name: "invalid json",
			raw:  `{"type":`,
			want: Message{Type: MessageError, Error: "invalid JSON from server", Malformed: true},
		},
		{
			name: "invalid base64",
			raw:  `{"type":"chunk","context_id":"c1","data":"!!!"}`,
			want: Message{Type: MessageError, ContextID: "c1", Error: "invalid base64 audio from server", Malformed: true},
		},
		{
			name: "timestamps pass through untouched",
			raw:  `{"type":"timestamps","context_id":"c1"}`,
			want: Message{Type: "timestamps", ContextID: "c1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseMessage([]byte(tt.raw)))
		})
	}
}

func TestGenerationRequestJSON(t *testing.T) {
	req := GenerationRequest{
		ModelID:    "sonic-2",
		Transcript: "Hi.",
		Voice:      Voice{Mode: VoiceModeID, ID: "v"},
		Language:   "en",
		ContextID:  "c1",
		OutputFormat: OutputFormat{
			Container:  ContainerRaw,
			Encoding:   EncodingPCM16,
			SampleRate: 44100,
		},
	}

	data, err := json.Marshal(req)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"model_id": "sonic-2",
		"transcript": "Hi.",
		"voice": {"mode": "id", "id": "v"},
		"language": "en",
		"context_id": "c1",
		"output_format": {"container": "raw", "encoding": "pcm_s16le", "sample_rate": 44100},
		"add_timestamps": false,
		"continue": false
	}`, string(data))
}
