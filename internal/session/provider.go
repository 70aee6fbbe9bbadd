package session

import (
	"context"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atlekbai/expansion_explorer/internal/config"
)

var (
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrUnavailable          = errors.New("database unavailable")
	ErrSessionNotFound      = errors.New("session not found")
)

// Credentials are the per-user database login.
type Credentials struct {
	User     string
	Password string
}

// Conn is a live database handle owned by one session.
type Conn interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Ping(ctx context.Context) error
	Close()
}

// Provider opens database handles for a set of credentials.
type Provider interface {
	Connect(ctx context.Context, creds Credentials) (Conn, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, creds Credentials) (Conn, error)

func (f ProviderFunc) Connect(ctx context.Context, creds Credentials) (Conn, error) {
	return f(ctx, creds)
}

// PgProvider opens a pgx pool per session against the configured database.
type PgProvider struct {
	cfg config.DatabaseConfig
}

func NewPgProvider(cfg config.DatabaseConfig) *PgProvider {
	return &PgProvider{cfg: cfg}
}

func (p *PgProvider) Connect(ctx context.Context, creds Credentials) (Conn, error) {
	pc, err := p.poolConfig(creds)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, classify(errors.Wrap(err, "create pool"))
	}
	return pool, nil
}

func (p *PgProvider) poolConfig(creds Credentials) (*pgxpool.Config, error) {
	pc, err := pgxpool.ParseConfig(p.cfg.URL)
	if err != nil {
		return nil, errors.Wrap(err, "parse database url")
	}
	pc.ConnConfig.User = creds.User
	pc.ConnConfig.Password = creds.Password
	if p.cfg.MaxConns > 0 {
		pc.MaxConns = p.cfg.MaxConns
	}
	if p.cfg.StatementTimeout > 0 {
		pc.ConnConfig.RuntimeParams["statement_timeout"] = strconv.FormatInt(p.cfg.StatementTimeout.Milliseconds(), 10)
	}
	return pc, nil
}

// classify marks err as an authentication failure when the server rejected
// the login (SQLSTATE class 28) and as unavailability otherwise.
func classify(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && strings.HasPrefix(pgErr.Code, "28") {
		return errors.Mark(err, ErrAuthenticationFailed)
	}
	return errors.Mark(err, ErrUnavailable)
}
