package service

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"connectrpc.com/connect"

	"github.com/atlekbai/expansion_explorer/internal/filter"
	"github.com/atlekbai/expansion_explorer/internal/metrics"
	"github.com/atlekbai/expansion_explorer/internal/query"
	"github.com/atlekbai/expansion_explorer/internal/render"
	"github.com/atlekbai/expansion_explorer/internal/results"
	"github.com/atlekbai/expansion_explorer/internal/session"
)

const ServiceName = "explorer.v1.ExplorerService"

const (
	LoginProcedure       = "/" + ServiceName + "/Login"
	LogoutProcedure      = "/" + ServiceName + "/Logout"
	ListOptionsProcedure = "/" + ServiceName + "/ListOptions"
	CompileProcedure     = "/" + ServiceName + "/Compile"
	RunQueryProcedure    = "/" + ServiceName + "/RunQuery"
)

type ExplorerService struct {
	sessions *session.Manager
	timeout  time.Duration
}

// NewExplorerService serves queries for the sessions held by sessions. Each
// query runs under timeout; zero leaves only the server-side statement timeout.
func NewExplorerService(sessions *session.Manager, timeout time.Duration) *ExplorerService {
	return &ExplorerService{sessions: sessions, timeout: timeout}
}

func (s *ExplorerService) RegisterHandler(interceptors ...connect.Interceptor) (string, http.Handler) {
	opts := []connect.HandlerOption{
		connect.WithCodec(JSONCodec{}),
		connect.WithInterceptors(interceptors...),
	}
	mux := http.NewServeMux()
	mux.Handle(LoginProcedure, connect.NewUnaryHandler(LoginProcedure, s.Login, opts...))
	mux.Handle(LogoutProcedure, connect.NewUnaryHandler(LogoutProcedure, s.Logout, opts...))
	mux.Handle(ListOptionsProcedure, connect.NewUnaryHandler(ListOptionsProcedure, s.ListOptions, opts...))
	mux.Handle(CompileProcedure, connect.NewUnaryHandler(CompileProcedure, s.Compile, opts...))
	mux.Handle(RunQueryProcedure, connect.NewUnaryHandler(RunQueryProcedure, s.RunQuery, opts...))
	return "/" + ServiceName + "/", mux
}

func (s *ExplorerService) Login(ctx context.Context, req *connect.Request[LoginRequest]) (*connect.Response[LoginResponse], error) {
	msg := req.Msg
	sess, err := s.sessions.Login(ctx, session.Credentials{User: msg.User, Password: msg.Password}, msg.PreviousToken)
	if err != nil {
		log.Printf("login failed: user=%s: %v", msg.User, err)
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&LoginResponse{
		Token:          sess.Token,
		User:           sess.User,
		AggregateCount: sess.Catalog.Len(),
	}), nil
}

func (s *ExplorerService) Logout(_ context.Context, req *connect.Request[LogoutRequest]) (*connect.Response[LogoutResponse], error) {
	if err := s.sessions.Logout(req.Msg.Token); err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&LogoutResponse{}), nil
}

func (s *ExplorerService) ListOptions(_ context.Context, req *connect.Request[ListOptionsRequest]) (*connect.Response[ListOptionsResponse], error) {
	sess, err := s.sessions.Get(req.Msg.Token)
	if err != nil {
		return nil, toConnectError(err)
	}
	dt, err := filter.ParseDataType(req.Msg.DataType)
	if err != nil {
		return nil, toConnectError(err)
	}

	resp := &ListOptionsResponse{DataType: string(dt)}
	for _, c := range filter.Categories {
		labels := sess.Model.Labels(dt, c)
		if labels == nil {
			labels = []string{}
		}
		resp.Categories = append(resp.Categories, CategoryOptions{Category: c.String(), Labels: labels})
	}
	return connect.NewResponse(resp), nil
}

func (s *ExplorerService) Compile(_ context.Context, req *connect.Request[QueryRequest]) (*connect.Response[CompileResponse], error) {
	sess, compiled, err := s.compile(req.Msg)
	if err != nil {
		return nil, toConnectError(err)
	}
	metrics.CountQuery(string(compiled.DataType), metrics.OutcomeCompiled)
	log.Printf("compiled: user=%s data_type=%s params=%d", sess.User, compiled.DataType, len(compiled.Args))
	return connect.NewResponse(&CompileResponse{SQL: compiled.SQL, Params: compiled.Args}), nil
}

func (s *ExplorerService) RunQuery(ctx context.Context, req *connect.Request[QueryRequest]) (*connect.Response[RunQueryResponse], error) {
	res, err := s.Run(ctx, req.Msg)
	if err != nil {
		return nil, toConnectError(err)
	}

	rows := res.Rows
	if rows == nil {
		rows = []results.Row{}
	}
	return connect.NewResponse(&RunQueryResponse{
		RowCount:   len(res.Rows),
		Message:    fmt.Sprintf("%d rows returned.", len(res.Rows)),
		Rows:       rows,
		Series:     res.Series.All(),
		XAxisLabel: render.XAxisLabel(res.DataType),
		YAxisLabel: render.YAxisLabel(),
	}), nil
}

// Result is one executed query: the statement, its rows and their series.
type Result struct {
	DataType filter.DataType
	Compiled *query.Compiled
	Rows     []results.Row
	Series   *results.SeriesSet
}

// Run compiles and executes msg against the caller's session. Nothing reaches
// the database unless every category has a selection.
func (s *ExplorerService) Run(ctx context.Context, msg *QueryRequest) (*Result, error) {
	sess, compiled, err := s.compile(msg)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	rows, err := results.Fetch(ctx, sess.Conn, compiled.SQL, compiled.Args, s.timeout)
	elapsed := time.Since(start)
	dt := string(compiled.DataType)
	if err != nil {
		outcome := metrics.OutcomeError
		if Code(err) == connect.CodeDeadlineExceeded {
			outcome = metrics.OutcomeTimeout
		}
		metrics.ObserveQuery(dt, outcome, 0, elapsed)
		log.Printf("query failed: user=%s data_type=%s after %s: %v", sess.User, dt, elapsed, err)
		return nil, err
	}

	outcome := metrics.OutcomeOK
	if len(rows) == 0 {
		outcome = metrics.OutcomeEmpty
	}
	metrics.ObserveQuery(dt, outcome, len(rows), elapsed)
	log.Printf("query: user=%s data_type=%s rows=%d in %s", sess.User, dt, len(rows), elapsed)

	return &Result{
		DataType: compiled.DataType,
		Compiled: compiled,
		Rows:     rows,
		Series:   results.Group(rows),
	}, nil
}

func (s *ExplorerService) compile(msg *QueryRequest) (*session.Session, *query.Compiled, error) {
	sess, err := s.sessions.Get(msg.Token)
	if err != nil {
		return nil, nil, err
	}
	dt, err := filter.ParseDataType(msg.DataType)
	if err != nil {
		return nil, nil, err
	}
	sel, err := query.ParseSelection(msg.Selection)
	if err != nil {
		metrics.CountQuery(string(dt), metrics.OutcomeInvalid)
		return nil, nil, err
	}
	compiled, err := sess.Compiler.Compile(dt, sel)
	if err != nil {
		metrics.CountQuery(string(dt), metrics.OutcomeInvalid)
		return nil, nil, err
	}
	return sess, compiled, nil
}
