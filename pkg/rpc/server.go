package rpc

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/vulntor/netspectre/pkg/baseline"
	"github.com/vulntor/netspectre/pkg/diff"
	"github.com/vulntor/netspectre/pkg/fingerprint"
	"github.com/vulntor/netspectre/pkg/inventory"
	"github.com/vulntor/netspectre/pkg/profile"
	"github.com/vulntor/netspectre/pkg/storage"
)

// maxLineSize bounds a single request line.
const maxLineSize = 32 << 20

// ProfileStore is the profile collaborator used by the profiles.* methods.
type ProfileStore interface {
	List(ctx context.Context) ([]profile.Profile, error)
	Get(ctx context.Context, name string) (profile.Profile, error)
	Create(ctx context.Context, p profile.Profile) (profile.Profile, error)
	Update(ctx context.Context, name string, p profile.Profile) (profile.Profile, error)
	Delete(ctx context.Context, name string) error
	Validate(p profile.Profile) []string
}

// BaselineStore is the snapshot collaborator used by the baseline.* methods.
type BaselineStore interface {
	CreateSnapshot(ctx context.Context, hosts []inventory.Host, label string) (baseline.Meta, error)
	List(ctx context.Context) ([]baseline.Meta, error)
	Get(ctx context.Context, id string) (baseline.Baseline, error)
	Delete(ctx context.Context, id string) error
	Diff(ctx context.Context, id string, current []inventory.Host) (diff.Result, error)
}

type handlerFunc func(ctx context.Context, p params) (any, error)

// Server dispatches JSON-RPC requests to the engine.
type Server struct {
	profiles  ProfileStore
	baselines BaselineStore
	analyzer  *fingerprint.Analyzer
	logger    zerolog.Logger

	methods map[string]handlerFunc
}

// Option configures a Server.
type Option func(*Server)

// WithAnalyzer sets the fingerprint analyzer (defaults to one on the wall
// clock).
func WithAnalyzer(a *fingerprint.Analyzer) Option {
	return func(s *Server) {
		if a != nil {
			s.analyzer = a
		}
	}
}

// WithLogger sets the server logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer builds a server over the given stores.
func NewServer(profiles ProfileStore, baselines BaselineStore, opts ...Option) *Server {
	s := &Server{
		profiles:  profiles,
		baselines: baselines,
		analyzer:  fingerprint.NewAnalyzer(),
		logger:    log.Logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With().Str("component", "rpc").Logger()
	s.methods = s.routes()
	return s
}

// Methods returns the names of all registered methods, sorted.
func (s *Server) Methods() []string {
	names := make([]string, 0, len(s.methods))
	for name := range s.methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Serve reads requests from r and writes responses to w until r is
// exhausted or ctx is canceled. EOF is a normal shutdown and returns nil.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	lines := make(chan []byte)
	readErr := make(chan error, 1)

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
		for scanner.Scan() {
			line := append([]byte(nil), scanner.Bytes()...)
			select {
			case lines <- line:
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)

	s.logger.Info().Int("methods", len(s.methods)).Msg("JSON-RPC server ready")

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("JSON-RPC server stopping")
			return ctx.Err()

		case line, ok := <-lines:
			if !ok {
				var err error
				select {
				case err = <-readErr:
				default:
				}
				if err != nil {
					return fmt.Errorf("read request: %w", err)
				}
				s.logger.Info().Msg("Input closed, JSON-RPC server exiting")
				return nil
			}

			line = bytes.TrimSpace(line)
			if len(line) == 0 {
				continue
			}

			resp := s.Handle(ctx, line)
			if err := enc.Encode(resp); err != nil {
				return fmt.Errorf("write response: %w", err)
			}
			if err := bw.Flush(); err != nil {
				return fmt.Errorf("flush response: %w", err)
			}
		}
	}
}

// Handle processes a single request line and returns its response.
func (s *Server) Handle(ctx context.Context, line []byte) Response {
	if len(line) > 0 && line[0] == '[' {
		return failure(nil, newError(CodeInvalidRequest, "Batch requests are not supported"))
	}

	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		s.logger.Warn().Err(err).Msg("Unparseable request")
		return failure(nil, newError(CodeParseError, "Parse error: %v", err))
	}

	if req.Method == "" || (req.JSONRPC != "" && req.JSONRPC != Version) {
		return failure(req.ID, newError(CodeInvalidRequest, "Invalid request"))
	}

	handler, ok := s.methods[req.Method]
	if !ok {
		return failure(req.ID, newError(CodeMethodNotFound, "Method '%s' not found", req.Method))
	}

	p, perr := parseParams(req.Params)
	if perr != nil {
		return failure(req.ID, perr)
	}

	start := time.Now()
	result, err := handler(ctx, p)
	logEvt := s.logger.Debug()
	if err != nil {
		logEvt = s.logger.Warn().Err(err)
	}
	logEvt.Str("method", req.Method).Dur("took", time.Since(start)).Msg("Handled request")

	if err != nil {
		return failure(req.ID, toRPCError(err))
	}
	return success(req.ID, result)
}

// toRPCError maps collaborator errors onto protocol codes.
func toRPCError(err error) *Error {
	var rpcErr *Error
	if errors.As(err, &rpcErr) {
		return rpcErr
	}

	if resource, id, ok := storage.MissingRecord(err); ok {
		switch resource {
		case storage.ResourceProfile:
			return newError(CodeProfileNotFound, "Profile '%s' not found", id)
		case storage.ResourceBaseline:
			return newError(CodeBaselineNotFound, "Baseline '%s' not found", id)
		}
	}

	var rec *storage.RecordError
	if errors.As(err, &rec) && storage.IsAlreadyExists(rec) {
		return newError(CodeInvalidParams, "%s '%s' already exists", capitalize(string(rec.Resource)), rec.ID)
	}

	if storage.IsInvalidInput(err) {
		return newError(CodeInvalidParams, "%s", err.Error())
	}
	return newError(CodeInternalError, "%s", err.Error())
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	if b[0] >= 'a' && b[0] <= 'z' {
		b[0] -= 'a' - 'A'
	}
	return string(b)
}
