package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/maypok86/otter"
	"golang.org/x/sync/errgroup"

	"github.com/atlekbai/expansion_explorer/internal/catalog"
	"github.com/atlekbai/expansion_explorer/internal/filter"
	"github.com/atlekbai/expansion_explorer/internal/metrics"
	"github.com/atlekbai/expansion_explorer/internal/query"
)

// Session is one authenticated user's database handle and vocabulary.
type Session struct {
	Token    string
	User     string
	Conn     Conn
	Catalog  *catalog.Catalog
	Model    *filter.Model
	Compiler *query.Compiler

	fingerprint string
	closeOnce   sync.Once
}

func (s *Session) close(cause string) {
	s.closeOnce.Do(func() {
		s.Conn.Close()
		metrics.SessionClosed(cause)
		log.Printf("session closed: user=%s cause=%s", s.User, cause)
	})
}

// Manager issues session tokens. A session expires a fixed time after login;
// evicted or expired sessions have their connection closed.
type Manager struct {
	provider Provider
	sessions store
	byUser   sync.Map // user -> token
}

// MinCapacity is the smallest session capacity the cache admits entries at.
const MinCapacity = 16

// store is the part of otter.Cache the manager uses.
type store interface {
	Get(key string) (*Session, bool)
	Set(key string, value *Session) bool
	Delete(key string)
	Range(f func(key string, value *Session) bool)
	Size() int
	Close()
}

// NewManager holds up to capacity sessions, each for ttl after login.
// Capacities below MinCapacity are raised to it.
func NewManager(provider Provider, capacity int, ttl time.Duration) (*Manager, error) {
	if capacity < MinCapacity {
		capacity = MinCapacity
	}
	m := &Manager{provider: provider}
	cache, err := otter.MustBuilder[string, *Session](capacity).
		WithTTL(ttl).
		DeletionListener(m.onDelete).
		Build()
	if err != nil {
		return nil, errors.Wrap(err, "build session cache")
	}
	m.sessions = &cache
	return m, nil
}

func (m *Manager) onDelete(token string, s *Session, cause otter.DeletionCause) {
	m.byUser.CompareAndDelete(s.User, token)
	s.close(causeName(cause))
}

func causeName(cause otter.DeletionCause) string {
	switch cause {
	case otter.Expired:
		return "expired"
	case otter.Size:
		return "evicted"
	case otter.Replaced:
		return "replaced"
	default:
		return "logout"
	}
}

// Login opens a connection for creds, verifies it and loads the aggregate
// catalog. A live session opened with the same credentials is returned as is;
// one opened with different credentials for the same user is closed. The
// caller's previous session, if named, is closed once the new one is live.
func (m *Manager) Login(ctx context.Context, creds Credentials, previous string) (*Session, error) {
	s, err := m.login(ctx, creds)
	if err != nil {
		return nil, err
	}
	if previous != "" && previous != s.Token {
		if old, ok := m.sessions.Get(previous); ok {
			m.drop(previous, old)
		}
	}
	return s, nil
}

func (m *Manager) login(ctx context.Context, creds Credentials) (*Session, error) {
	if strings.TrimSpace(creds.User) == "" {
		return nil, errors.Mark(errors.New("user is required"), ErrAuthenticationFailed)
	}
	fp := fingerprint(creds)

	var stale *Session
	if v, ok := m.byUser.Load(creds.User); ok {
		if s, ok := m.sessions.Get(v.(string)); ok {
			if s.fingerprint == fp {
				return s, nil
			}
			stale = s
		}
	}

	conn, err := m.provider.Connect(ctx, creds)
	if err != nil {
		return nil, classify(err)
	}

	cat := catalog.New()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return errors.Wrap(conn.Ping(gctx), "ping")
	})
	g.Go(func() error {
		return cat.Load(gctx, conn)
	})
	if err := g.Wait(); err != nil {
		conn.Close()
		return nil, classify(err)
	}

	model := filter.NewModel(cat)
	s := &Session{
		Token:       uuid.NewString(),
		User:        creds.User,
		Conn:        conn,
		Catalog:     cat,
		Model:       model,
		Compiler:    query.NewCompiler(model),
		fingerprint: fp,
	}
	if !m.sessions.Set(s.Token, s) {
		conn.Close()
		return nil, errors.Mark(errors.Newf("session store rejected session for user %s", s.User), ErrUnavailable)
	}
	metrics.SessionOpened()

	// the old credentials are only retired once the new ones are proven
	if stale != nil {
		m.drop(stale.Token, stale)
	}
	m.byUser.Store(s.User, s.Token)
	log.Printf("session opened: user=%s aggregates=%d", s.User, cat.Len())
	return s, nil
}

// Get returns the live session for token.
func (m *Manager) Get(token string) (*Session, error) {
	s, ok := m.sessions.Get(token)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Logout closes the session for token.
func (m *Manager) Logout(token string) error {
	s, ok := m.sessions.Get(token)
	if !ok {
		return ErrSessionNotFound
	}
	m.drop(token, s)
	return nil
}

func (m *Manager) drop(token string, s *Session) {
	m.sessions.Delete(token)
	m.byUser.CompareAndDelete(s.User, token)
	s.close("logout")
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	return m.sessions.Size()
}

// Close ends every session and stops the cache.
func (m *Manager) Close() {
	var open []*Session
	m.sessions.Range(func(_ string, s *Session) bool {
		open = append(open, s)
		return true
	})
	for _, s := range open {
		m.drop(s.Token, s)
	}
	m.sessions.Close()
}

func fingerprint(creds Credentials) string {
	sum := sha256.Sum256([]byte(creds.User + "\x00" + creds.Password))
	return hex.EncodeToString(sum[:])
}
