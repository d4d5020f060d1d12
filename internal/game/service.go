package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

type sessionEntry struct {
	session  *Session
	lastSeen time.Time
}

// Service keeps independent in-memory sessions and runs every command for a
// given session to completion before the next one.
type Service struct {
	log         *slog.Logger
	mu          sync.Mutex
	sessions    map[string]*sessionEntry
	maxSessions int
	now         func() time.Time
}

type Result struct {
	Outcome  Outcome  `json:"outcome"`
	Snapshot Snapshot `json:"snapshot"`
}

type ReplayResult struct {
	Index   int     `json:"index"`
	Type    string  `json:"type"`
	OK      bool    `json:"ok"`
	Outcome Outcome `json:"outcome"`
	Error   string  `json:"error,omitempty"`
}

func NewService(logger *slog.Logger, maxSessions int) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		log:         logger,
		sessions:    make(map[string]*sessionEntry),
		maxSessions: maxSessions,
		now:         time.Now,
	}
}

func (s *Service) Create(ctx context.Context) (string, Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return "", Snapshot{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.maxSessions > 0 && len(s.sessions) >= s.maxSessions {
		return "", Snapshot{}, fmt.Errorf("%w: %d active", ErrSessionLimit, len(s.sessions))
	}
	id := uuid.NewString()
	sess := NewSession()
	s.sessions[id] = &sessionEntry{session: sess, lastSeen: s.now()}
	s.log.Info("session created", "session_id", id, "active_sessions", len(s.sessions))
	return id, sess.Snapshot(), nil
}

func (s *Service) Snapshot(ctx context.Context, id string) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.lookupLocked(id)
	if err != nil {
		return Snapshot{}, err
	}
	return e.session.Snapshot(), nil
}

func (s *Service) Apply(ctx context.Context, id string, cmd Command) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.lookupLocked(id)
	if err != nil {
		return Result{}, err
	}
	out, err := e.session.Apply(cmd)
	res := Result{Outcome: out, Snapshot: e.session.Snapshot()}
	if err != nil {
		s.log.Warn("command rejected", "session_id", id, "command", commandName(cmd), "err", err)
		return res, err
	}
	s.logOutcome(id, cmd, out)
	return res, nil
}

// Replay applies a batch of commands in order. A rejected command is reported
// in its result and does not stop the batch.
func (s *Service) Replay(ctx context.Context, id string, batch []CommandEnvelope) ([]ReplayResult, Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, Snapshot{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.lookupLocked(id)
	if err != nil {
		return nil, Snapshot{}, err
	}
	results := make([]ReplayResult, 0, len(batch))
	for i, env := range batch {
		r := ReplayResult{Index: i, Type: env.Type}
		cmd, err := env.Command()
		if err != nil {
			r.Error = err.Error()
			results = append(results, r)
			continue
		}
		out, err := e.session.Apply(cmd)
		r.Outcome = out
		if err != nil {
			r.Error = err.Error()
		} else {
			r.OK = true
			s.logOutcome(id, cmd, out)
		}
		results = append(results, r)
	}
	return results, e.session.Snapshot(), nil
}

func (s *Service) End(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(s.sessions, id)
	s.log.Info("session ended", "session_id", id, "active_sessions", len(s.sessions))
	return nil
}

func (s *Service) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// ReapIdle drops sessions untouched for longer than ttl and returns how many
// were removed.
func (s *Service) ReapIdle(ttl time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-ttl)
	removed := 0
	for id, e := range s.sessions {
		if e.lastSeen.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

func (s *Service) RunReaper(ctx context.Context, every, ttl time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	s.log.Info("session reaper started", "every", every.String(), "ttl", ttl.String())
	for {
		select {
		case <-ctx.Done():
			s.log.Info("session reaper shutdown")
			return
		case <-ticker.C:
			if n := s.ReapIdle(ttl); n > 0 {
				s.log.Info("idle sessions reaped", "removed", n, "active_sessions", s.Len())
			}
		}
	}
}

func (s *Service) lookupLocked(id string) (*sessionEntry, error) {
	e, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	e.lastSeen = s.now()
	return e, nil
}

func (s *Service) logOutcome(id string, cmd Command, out Outcome) {
	attrs := []any{"session_id", id, "command", commandName(cmd), "applied", out.Applied}
	switch {
	case out.Round != nil:
		attrs = append(attrs, "round", out.Round.Round, "profit", out.Round.Profit, "share", out.Round.MarketShare)
	case out.Acquisition != nil:
		attrs = append(attrs, "competitor_id", out.Acquisition.CompetitorID, "cost", out.Acquisition.Cost.String())
	}
	if out.MessageKind == MessageMonopolyAchieved {
		s.log.Info("monopoly achieved", attrs...)
		return
	}
	s.log.Debug("command applied", attrs...)
}

func commandName(cmd Command) string {
	if cmd == nil {
		return "<nil>"
	}
	return cmd.Name()
}

// IsClientError reports whether err was caused by the caller rather than the service.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInsufficientFunds) ||
		errors.Is(err, ErrInvalidSettings) ||
		errors.Is(err, ErrUnknownCommand)
}
