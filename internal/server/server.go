// Package server implements one bulletin-board node: the TCP front end,
// the shared article store and session tracker, and the three pluggable
// consistency regimes (sequential.go, ryw.go, quorum.go) selected by
// config.Config.Consistency.
package server

import (
	"math/rand"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/khitir/bulletin-board/internal/config"
	"github.com/khitir/bulletin-board/internal/idalloc"
	"github.com/khitir/bulletin-board/internal/netutil"
	"github.com/khitir/bulletin-board/internal/protocol"
	"github.com/khitir/bulletin-board/internal/rpcclient"
	"github.com/khitir/bulletin-board/internal/session"
	"github.com/khitir/bulletin-board/internal/store"
)

// Server is one cluster node: its store, its session tracker, and the
// wiring needed to speak the protocol to clients and to peers.
type Server struct {
	cfg config.Config

	store    *store.Store
	sessions *session.Tracker
	ids      *idalloc.Allocator // non-nil only when cfg.Coordinator
	rpc      *rpcclient.Client

	log      zerolog.Logger
	registry *prometheus.Registry
	metrics  *metrics

	rngMu sync.Mutex
	rng   *rand.Rand

	stop chan struct{}
}

// Option customizes a Server at construction, primarily so tests can
// inject a deterministic PRNG or a throwaway logger.
type Option func(*Server)

// WithRand overrides the per-server PRNG used for quorum selection and
// latency jitter, letting tests assert on deterministic quorum selection.
func WithRand(r *rand.Rand) Option {
	return func(s *Server) { s.rng = r }
}

// WithLogger overrides the zerolog.Logger used for all log output.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Server) { s.log = l }
}

// WithRPCClient overrides the client used for peer RPCs, for example to
// change its Timeout. Peer RPCs still go over TCP.
func WithRPCClient(c *rpcclient.Client) Option {
	return func(s *Server) { s.rpc = c }
}

// New constructs a Server from cfg. It does not bind a listener; call
// Start for that.
func New(cfg config.Config, opts ...Option) *Server {
	reg := prometheus.NewRegistry()
	s := &Server{
		cfg:      cfg,
		store:    store.New(),
		sessions: session.New(),
		rpc:      rpcclient.New(),
		log:      zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Str("addr", cfg.Addr()).Logger(),
		registry: reg,
		metrics:  newMetrics(reg),
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		stop:     make(chan struct{}),
	}
	if cfg.Coordinator {
		s.ids = idalloc.New()
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start binds the protocol listener and, if configured, the debug HTTP
// surface, launches the mode's background replication loop, and runs the
// accept loop until Stop is called. It blocks.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		s.log.Fatal().Err(err).Msg("failed to bind protocol listener")
		return err
	}
	s.log.Info().Bool("coordinator", s.cfg.Coordinator).Str("mode", string(s.cfg.Consistency)).Msg("server started")

	if s.cfg.DebugPort != 0 {
		go s.serveDebugHTTP()
	}

	switch s.cfg.Consistency {
	case config.ReadYourWrites:
		go s.runPropagationLoop()
	case config.Quorum:
		go s.runAntiEntropyLoop()
	}

	return s.acceptLoop(ln)
}

// Stop halts the accept loop and background replication goroutines.
func (s *Server) Stop() {
	close(s.stop)
}

func (s *Server) serveDebugHTTP() {
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.DebugPort))
	srv := &http.Server{Addr: addr, Handler: s.debugRouter()}
	s.log.Info().Str("debug_addr", addr).Msg("debug HTTP surface listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.log.Error().Err(err).Msg("debug HTTP surface stopped")
	}
}

func (s *Server) acceptLoop(ln net.Listener) error {
	defer ln.Close()
	go func() {
		<-s.stop
		ln.Close()
	}()
	for {
		select {
		case <-s.stop:
			return nil
		default:
		}
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-s.stop:
				return nil
			default:
			}
			s.log.Warn().Err(err).Msg("accept failed")
			continue
		}
		go s.handleConnection(conn)
	}
}

// handleConnection serves a single client or peer connection: one or more
// newline-delimited request/response pairs. Each dispatch is preceded by
// a random [0,2)s delay simulating WAN latency; it is part of the
// observable behavior and only skipped when DisableLatencyJitter is set
// (test harnesses).
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()
	reader := netutil.NewLineReader(conn)
	for {
		line, err := reader.ReadLine()
		if err != nil {
			return
		}
		if len(line) == 0 {
			continue
		}

		s.simulateLatency()

		resp := s.handleLine(line)
		payload, err := protocol.Encode(resp)
		if err != nil {
			s.log.Error().Err(err).Msg("failed to encode response")
			return
		}
		if _, err := conn.Write(payload); err != nil {
			s.log.Warn().Err(err).Msg("failed to write response")
			return
		}
	}
}

func (s *Server) handleLine(line []byte) protocol.Message {
	msg, err := protocol.Decode(line)
	if err != nil {
		return protocol.NewError(protocol.MsgUnknownType)
	}
	return s.dispatch(msg)
}

func (s *Server) simulateLatency() {
	if s.cfg.DisableLatencyJitter {
		return
	}
	time.Sleep(time.Duration(s.randFloat() * float64(2*time.Second)))
}

// randFloat returns a float in [0,1) from the server's own PRNG, guarded
// by a mutex since math/rand.Rand is not safe for concurrent use and the
// same generator is shared by latency jitter and quorum selection across
// connection goroutines.
func (s *Server) randFloat() float64 {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return s.rng.Float64()
}
