// Package tts runs streaming synthesis sessions: text goes out in chunks
// over one connection and audio comes back as WAV containers on a channel.
package tts

import (
	"context"
	"strings"
	"time"

	"github.com/dooshek/sonicstream/internal/audio"
	"github.com/dooshek/sonicstream/internal/cartesia"
	"github.com/dooshek/sonicstream/internal/errors"
	"github.com/dooshek/sonicstream/internal/logger"
	"github.com/dooshek/sonicstream/internal/metrics"
	"github.com/dooshek/sonicstream/internal/transcript"
	"github.com/dooshek/sonicstream/internal/types"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// statusBuffer fits starting, streaming and the terminal status so the
// session never blocks on status delivery.
const statusBuffer = 3

// Conn is the wire connection a session drives.
type Conn interface {
	SendChunk(transcript, contextID string, cont bool) error
	Receive() (cartesia.Message, error)
	Cancel(contextID string) error
	Close() error
}

// DialFunc opens the connection for one session.
type DialFunc func(ctx context.Context, cfg types.TTSConfig) (Conn, error)

func dialCartesia(ctx context.Context, cfg types.TTSConfig) (Conn, error) {
	conn, err := cartesia.NewClient(cfg).Dial(ctx)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// Option configures a Session before it starts.
type Option func(*Session)

// WithStopSignal shares a caller-owned stop signal with the session.
func WithStopSignal(stop *StopSignal) Option {
	return func(s *Session) {
		if stop != nil {
			s.stop = stop
		}
	}
}

// WithMetrics records session counters on m. A nil m disables them.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Session) {
		s.metrics = m
	}
}

// WithDialer replaces the Cartesia websocket dialer.
func WithDialer(dial DialFunc) Option {
	return func(s *Session) {
		if dial != nil {
			s.dial = dial
		}
	}
}

// Session is one streaming synthesis run. Audio and Status are closed after
// the terminal status has been delivered.
type Session struct {
	id        string
	cfg       types.TTSConfig
	chunks    []transcript.Chunk
	assembler *audio.Assembler
	stop      *StopSignal
	dial      DialFunc
	metrics   *metrics.Metrics
	log       zerolog.Logger

	audio  chan audio.Container
	status chan Status
	done   chan struct{}
	final  Status
	err    error
}

// Validate checks the fields a session cannot run without.
func Validate(cfg types.TTSConfig) error {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return errors.New(errors.KindConfig, "validate", "api key is required")
	}
	if cfg.SampleRate <= 0 {
		return errors.New(errors.KindConfig, "validate", "sample rate must be positive")
	}
	if cfg.MaxChunkChars < 0 {
		return errors.New(errors.KindConfig, "validate", "max chunk chars must not be negative")
	}
	if cfg.MinChunkSeconds < 0 {
		return errors.New(errors.KindConfig, "validate", "min chunk seconds must not be negative")
	}
	if cfg.ChannelBuffer < 0 {
		return errors.New(errors.KindConfig, "validate", "channel buffer must not be negative")
	}
	return nil
}

// Start validates cfg and launches a session for text in its own goroutine.
// A configuration error is returned before any connection attempt and no
// session exists in that case. ctx bounds the whole session.
func Start(ctx context.Context, text string, cfg types.TTSConfig, opts ...Option) (*Session, error) {
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	cfg = cfg.WithDefaults()

	chunks, err := transcript.Chunks(text, cfg.MaxChunkChars)
	if err != nil {
		return nil, errors.Wrap(errors.KindConfig, "chunk", "invalid chunk size", err)
	}
	assembler, err := audio.NewAssembler(cfg.SampleRate, cfg.MinChunkSeconds)
	if err != nil {
		return nil, errors.Wrap(errors.KindConfig, "assemble", "invalid buffering policy", err)
	}

	s := &Session{
		id:        uuid.NewString(),
		cfg:       cfg,
		chunks:    chunks,
		assembler: assembler,
		stop:      NewStopSignal(),
		dial:      dialCartesia,
		audio:     make(chan audio.Container, cfg.ChannelBuffer),
		status:    make(chan Status, statusBuffer),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = logger.WithSession(s.id)

	s.metrics.SessionStarted()
	s.status <- Status{State: StateStarting}
	s.log.Info().
		Str("model", cfg.ModelID).
		Int("chars", len(transcript.Normalize(text))).
		Int("chunks", len(chunks)).
		Msg("Starting TTS session")

	go s.run(ctx)
	return s, nil
}

// ContextID returns the id that tags every frame of this session.
func (s *Session) ContextID() string {
	return s.id
}

// Audio yields containers in the order their bytes were received.
func (s *Session) Audio() <-chan audio.Container {
	return s.audio
}

// Status yields starting, streaming (if reached) and one terminal status.
func (s *Session) Status() <-chan Status {
	return s.status
}

// Stop requests cooperative cancellation. It takes effect before the next
// send or receive, or at once if the session is waiting on Audio.
func (s *Session) Stop() {
	s.stop.Stop()
}

// Done is closed once the session has finished.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Wait blocks until the session finishes and returns its terminal status.
// The caller must keep draining Audio or the session may never finish.
func (s *Session) Wait() Status {
	<-s.done
	return s.final
}

// Err blocks like Wait and returns the failure behind an error status.
func (s *Session) Err() error {
	<-s.done
	return s.err
}

func (s *Session) run(ctx context.Context) {
	started := time.Now()
	final, err := s.stream(ctx)
	s.finish(final, err, time.Since(started))
}

func (s *Session) stream(ctx context.Context) (Status, error) {
	if len(s.chunks) == 0 {
		if s.stopRequested(ctx) {
			return Status{State: StateStopped}, nil
		}
		s.log.Debug().Msg("Nothing to synthesize")
		return Status{State: StateDone}, nil
	}
	if ctx.Err() != nil {
		return Status{State: StateStopped}, nil
	}

	conn, err := s.dial(ctx, s.cfg)
	if err != nil {
		return failed(err)
	}
	defer func() {
		if err := conn.Close(); err != nil {
			s.log.Debug().Err(err).Msg("Connection close failed")
		}
	}()
	s.log.Debug().Msg("Connected to TTS service")

	for _, chunk := range s.chunks {
		if s.stopRequested(ctx) {
			return s.cancel(conn), nil
		}

		text := chunk.Text
		if chunk.Continue {
			text += " "
		}
		if err := conn.SendChunk(text, s.id, chunk.Continue); err != nil {
			return failed(err)
		}
		s.metrics.ChunkSent()
		s.log.Debug().
			Int("index", chunk.Index).
			Int("chars", len(text)).
			Bool("continue", chunk.Continue).
			Msg("Sent transcript chunk")
	}

	s.status <- Status{State: StateStreaming}

	for {
		if s.stopRequested(ctx) {
			return s.cancel(conn), nil
		}

		msg, err := conn.Receive()
		if err != nil {
			return failed(err)
		}
		if msg.ContextID != "" && msg.ContextID != s.id {
			s.log.Debug().Str("other_context", msg.ContextID).Msg("Ignoring message for another context")
			continue
		}

		switch msg.Type {
		case cartesia.MessageChunk:
			if c, ok := s.assembler.Append(msg.Audio); ok {
				if !s.forward(ctx, c) {
					return s.cancel(conn), nil
				}
			}
		case cartesia.MessageDone:
			if c, ok := s.assembler.FinalFlush(); ok {
				if !s.forward(ctx, c) {
					return s.cancel(conn), nil
				}
			}
			return Status{State: StateDone}, nil
		case cartesia.MessageError:
			kind := errors.KindRemote
			if msg.Malformed {
				kind = errors.KindProtocol
			}
			return Status{State: StateError, Reason: msg.Error}, errors.New(kind, "receive", msg.Error)
		default:
			s.log.Debug().Str("type", string(msg.Type)).Msg("Ignoring message")
		}
	}
}

func (s *Session) stopRequested(ctx context.Context) bool {
	return s.stop.Stopped() || ctx.Err() != nil
}

// cancel sends the cancel frame once and reports the stopped state. A failed
// cancel is logged and otherwise ignored.
func (s *Session) cancel(conn Conn) Status {
	if err := conn.Cancel(s.id); err != nil {
		s.log.Warn().Err(err).Msg("Cancel frame not delivered")
	}
	return Status{State: StateStopped}
}

// forward hands c to the caller. It returns false when a stop or the end of
// ctx comes first.
func (s *Session) forward(ctx context.Context, c audio.Container) bool {
	select {
	case s.audio <- c:
	case <-s.stop.C():
		return false
	case <-ctx.Done():
		return false
	}
	s.metrics.ContainerEmitted(c.PCMBytes)
	s.log.Debug().
		Int("seq", c.Seq).
		Int("pcm_bytes", c.PCMBytes).
		Dur("duration", c.Duration).
		Msg("Forwarded audio container")
	return true
}

func (s *Session) finish(final Status, err error, elapsed time.Duration) {
	s.final = final
	s.err = err

	if final.State == StateError {
		s.log.Error().Err(err).Dur("elapsed", elapsed).Msg("TTS session failed")
	} else {
		s.log.Info().Str("status", final.String()).Dur("elapsed", elapsed).Msg("TTS session finished")
	}
	s.metrics.SessionFinished(string(final.State), elapsed)

	s.status <- final
	close(s.audio)
	close(s.status)
	close(s.done)
}

func failed(err error) (Status, error) {
	return Status{State: StateError, Reason: err.Error()}, err
}
