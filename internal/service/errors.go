package service

import (
	"connectrpc.com/connect"
	"github.com/cockroachdb/errors"

	"github.com/atlekbai/expansion_explorer/internal/filter"
	"github.com/atlekbai/expansion_explorer/internal/query"
	"github.com/atlekbai/expansion_explorer/internal/results"
	"github.com/atlekbai/expansion_explorer/internal/session"
)

// Code maps a domain error to the connect code reported to the caller.
func Code(err error) connect.Code {
	var incomplete *query.IncompleteSelectionError
	switch {
	case errors.Is(err, session.ErrAuthenticationFailed),
		errors.Is(err, session.ErrSessionNotFound):
		return connect.CodeUnauthenticated
	case errors.As(err, &incomplete),
		errors.Is(err, filter.ErrUnknownLabel),
		errors.Is(err, filter.ErrUnknownCategory),
		errors.Is(err, filter.ErrUnknownDataType):
		return connect.CodeInvalidArgument
	case errors.Is(err, filter.ErrEmptyCategory):
		return connect.CodeFailedPrecondition
	case errors.Is(err, results.ErrQueryTimeout):
		return connect.CodeDeadlineExceeded
	case errors.Is(err, session.ErrUnavailable):
		return connect.CodeUnavailable
	default:
		return connect.CodeInternal
	}
}

func toConnectError(err error) *connect.Error {
	return connect.NewError(Code(err), err)
}
