// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package beatrpc

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/luxfi/beatrpc/internal/metrics"
)

// Heartbeat interval bounds, inclusive.
const (
	MinInterval = time.Millisecond
	MaxInterval = time.Second
)

// StopDirective ends the loop when a head frame starts with it.
const StopDirective = "STOP"

var (
	// ErrInterval reports an interval outside [MinInterval, MaxInterval].
	ErrInterval = errors.New("beatrpc: interval out of bounds")
	// ErrRunning is returned by Run while another Run is in progress.
	ErrRunning = errors.New("beatrpc: heartbeat already running")
	// ErrStopped is returned by Run once the server has stopped.
	ErrStopped = errors.New("beatrpc: heartbeat stopped")
)

// State of a heartbeat loop. Idle -> Running -> Stopped; Stopped is final.
type State int32

// Loop states.
const (
	StateIdle State = iota
	StateRunning
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// CheckInterval reports ErrInterval unless d lies in [MinInterval, MaxInterval].
func CheckInterval(d time.Duration) error {
	if d < MinInterval || d > MaxInterval {
		return fmt.Errorf("%w: %v not in [%v, %v]", ErrInterval, d, MinInterval, MaxInterval)
	}
	return nil
}

// Server runs the heartbeat loop over one endpoint. Each cycle it receives
// one message, optionally dispatches its payload, and answers with exactly
// one frame.
type Server struct {
	ep    Endpoint
	reg   *Registry
	log   zerolog.Logger
	hook  func(State)
	sleep func(time.Duration)
	runID string

	beats atomic.Uint64
	state atomic.Int32
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithLogger sets the logger for loop events.
func WithLogger(l zerolog.Logger) ServerOption {
	return func(s *Server) { s.log = l }
}

// WithStateHook registers fn to observe state transitions. fn runs on the
// loop goroutine and must not block.
func WithStateHook(fn func(State)) ServerOption {
	return func(s *Server) { s.hook = fn }
}

// NewServer creates a heartbeat server. A nil registry exposes only echo.
func NewServer(ep Endpoint, reg *Registry, opts ...ServerOption) *Server {
	if reg == nil {
		reg = NewRegistry()
	}
	s := &Server{
		ep:    ep,
		reg:   reg,
		log:   zerolog.Nop(),
		sleep: time.Sleep,
		runID: uuid.NewString(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run beats every interval until a stop directive arrives, then returns nil.
// A transport, decode or frame ceiling error ends the run and is returned.
// A server runs at most once.
func (s *Server) Run(interval time.Duration) error {
	if err := CheckInterval(interval); err != nil {
		return err
	}
	if !s.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) {
		if s.State() == StateStopped {
			return ErrStopped
		}
		return ErrRunning
	}
	s.notify(StateRunning)
	log := s.log.With().Str("run", s.runID).Logger()
	log.Info().Str("addr", s.ep.Addr()).Dur("interval", interval).Msg("Beginning heartbeat")

	for {
		stop, err := s.beat(log)
		if err != nil {
			s.setState(StateStopped)
			metrics.RecordFatal()
			log.Error().Err(err).Uint64("beat", s.Beats()).Msg("Heartbeat failed")
			return err
		}
		if stop {
			s.setState(StateStopped)
			log.Info().Uint64("beat", s.Beats()).Msg("Heartbeat terminated")
			return nil
		}
		s.sleep(interval)
	}
}

// beat performs one receive/dispatch/respond cycle. It reports true after
// handling a stop directive.
func (s *Server) beat(log zerolog.Logger) (bool, error) {
	head, err := s.ep.Recv()
	if err != nil {
		return false, fmt.Errorf("receive head frame: %w", err)
	}
	n := s.beats.Add(1)
	metrics.RecordBeat()
	log.Debug().Uint64("beat", n).Str("frame", head).Msg("Received")

	if strings.HasPrefix(head, StopDirective) {
		log.Info().Msg("Terminating heartbeat")
		return true, s.respond(log, StoppedResponse())
	}

	resp := BeatResponse()
	if s.ep.More() {
		log.Debug().Msg("Payload attached")
		payload, err := collectPayload(s.ep, func(i int, text string) {
			log.Debug().Uint64("beat", n).Int("part", i).Str("frame", text).Msg("Payload frame")
		})
		if err != nil {
			return false, fmt.Errorf("collect payload: %w", err)
		}
		metrics.RecordPayloadFrames(len(payload))
		resp = s.dispatch(log, payload)
	}
	return false, s.respond(log, resp)
}

func (s *Server) dispatch(log zerolog.Logger, payload []string) Response {
	var method string
	if len(payload) > 0 {
		method = payload[0]
	}

	result, err := Dispatch(s.reg, payload)
	if err != nil {
		metrics.RecordCall(method, outcomeOf(err))
		log.Warn().Err(err).Strs("packet", payload).Msg("Error parsing packet")
		return ErrorResponse(err.Error())
	}
	metrics.RecordCall(method, metrics.OutcomeOK)
	return ResultResponse(result)
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, ErrMalformedPacket):
		return metrics.OutcomeMalformed
	case errors.Is(err, ErrInternalMethod):
		return metrics.OutcomeInternal
	case errors.Is(err, ErrNoSuchMethod):
		return metrics.OutcomeUnknown
	default:
		return metrics.OutcomeError
	}
}

func (s *Server) respond(log zerolog.Logger, r Response) error {
	text := EncodeResponse(r)
	log.Debug().Str("frame", text).Msg("Sending")
	if err := s.ep.Send(text); err != nil {
		return fmt.Errorf("send response: %w", err)
	}
	return nil
}

func (s *Server) setState(st State) {
	s.state.Store(int32(st))
	s.notify(st)
}

// notify publishes a state that is already stored.
func (s *Server) notify(st State) {
	metrics.SetLoopState(int(st))
	if s.hook != nil {
		s.hook(st)
	}
}

// State returns the loop state. Safe for concurrent use.
func (s *Server) State() State {
	return State(s.state.Load())
}

// Beats returns the number of cycles processed, including a stop cycle.
// Safe for concurrent use.
func (s *Server) Beats() uint64 {
	return s.beats.Load()
}

// RunID identifies this server's run in logs and status replies.
func (s *Server) RunID() string {
	return s.runID
}

// Methods returns the exposed method names.
func (s *Server) Methods() []string {
	return s.reg.Names()
}

// Addr returns the endpoint address.
func (s *Server) Addr() string {
	return s.ep.Addr()
}
