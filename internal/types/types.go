package types

import "time"

const (
	DefaultEndpoint        = "wss://api.cartesia.ai/tts/websocket"
	DefaultVersion         = "2025-04-16"
	DefaultModelID         = "sonic-2"
	DefaultVoiceID         = "a0e99841-438c-4a64-b679-ae501e7d6091"
	DefaultSampleRate      = 44100
	DefaultLanguage        = "en"
	DefaultMaxChunkChars   = 900
	DefaultMinChunkSeconds = 1.0
	DefaultChannelBuffer   = 16
	DefaultHandshake       = 30 * time.Second
)

// TTSConfig holds everything a single streaming session needs. It is
// copied into the session on start and never mutated afterwards.
type TTSConfig struct {
	APIKey     string `yaml:"api_key"`
	Version    string `yaml:"version"`     // cartesia_version query parameter
	ModelID    string `yaml:"model_id"`    // e.g. "sonic-2"
	VoiceID    string `yaml:"voice_id"`    // voice reference, sent with mode "id"
	SampleRate int    `yaml:"sample_rate"` // samples/sec of the returned PCM
	Language   string `yaml:"language"`

	Endpoint         string        `yaml:"endpoint"`
	MaxChunkChars    int           `yaml:"max_chunk_chars"`
	MinChunkSeconds  float64       `yaml:"min_chunk_seconds"` // audio buffered before an intermediate flush
	HandshakeTimeout time.Duration `yaml:"handshake_timeout"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`  // zero disables the per-message deadline
	WriteTimeout     time.Duration `yaml:"write_timeout"` // zero disables the per-frame deadline
	ChannelBuffer    int           `yaml:"channel_buffer"`
}

// LogConfig controls the process logger.
type LogConfig struct {
	Level    string `yaml:"level"`
	Filename string `yaml:"filename"`
}

// MetricsConfig controls the optional Prometheus endpoint.
type MetricsConfig struct {
	Addr string `yaml:"addr"` // empty disables the endpoint
}

type Config struct {
	TTS     TTSConfig     `yaml:"tts"`
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// GetTTSConfig returns TTS configuration with defaults. The API key is
// never defaulted.
func (c *Config) GetTTSConfig() TTSConfig {
	return c.TTS.WithDefaults()
}

// WithDefaults fills every unset optional field.
func (t TTSConfig) WithDefaults() TTSConfig {
	if t.Version == "" {
		t.Version = DefaultVersion
	}
	if t.ModelID == "" {
		t.ModelID = DefaultModelID
	}
	if t.VoiceID == "" {
		t.VoiceID = DefaultVoiceID
	}
	if t.SampleRate == 0 {
		t.SampleRate = DefaultSampleRate
	}
	if t.Language == "" {
		t.Language = DefaultLanguage
	}
	if t.Endpoint == "" {
		t.Endpoint = DefaultEndpoint
	}
	if t.MaxChunkChars == 0 {
		t.MaxChunkChars = DefaultMaxChunkChars
	}
	if t.MinChunkSeconds == 0 {
		t.MinChunkSeconds = DefaultMinChunkSeconds
	}
	if t.HandshakeTimeout == 0 {
		t.HandshakeTimeout = DefaultHandshake
	}
	if t.ChannelBuffer == 0 {
		t.ChannelBuffer = DefaultChannelBuffer
	}
	return t
}

// GetLogConfig returns log configuration with defaults
func (c *Config) GetLogConfig() LogConfig {
	config := c.Log
	if config.Level == "" {
		config.Level = "info"
	}
	return config
}
