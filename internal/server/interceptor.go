package server

import (
	"context"
	"log"
	"time"

	"connectrpc.com/connect"
)

// LoggingInterceptor logs each unary call with its procedure, outcome and duration.
func LoggingInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			resp, err := next(ctx, req)
			if err != nil {
				log.Printf("%s %s %s", req.Spec().Procedure, connect.CodeOf(err), time.Since(start))
				return resp, err
			}
			log.Printf("%s ok %s", req.Spec().Procedure, time.Since(start))
			return resp, nil
		}
	}
}
