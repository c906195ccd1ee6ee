// internal/middleware/request_id.go
package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

// RequestIDHeader names the request id on HTTP headers and gRPC metadata.
const RequestIDHeader = "x-request-id"

// Client-supplied ids longer than this are replaced before they reach logs.
const maxRequestIDLen = 128

type ctxKey int

const requestIDKey ctxKey = iota

// acceptID keeps a usable client id or mints a fresh UUID.
func acceptID(supplied string) string {
	if supplied == "" || len(supplied) > maxRequestIDLen {
		return uuid.NewString()
	}
	return supplied
}

// RequestID tags each HTTP request with an id, stores it in the request
// context and echoes it on the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := acceptID(r.Header.Get(RequestIDHeader))
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(WithRequestID(r.Context(), id)))
	})
}

// UnaryRequestIDInterceptor does the same for gRPC probe calls, reading the id
// from incoming metadata and returning it as a response header.
func UnaryRequestIDInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		var supplied string
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if vals := md.Get(RequestIDHeader); len(vals) > 0 {
				supplied = vals[0]
			}
		}
		id := acceptID(supplied)
		ctx = WithRequestID(ctx, id)

		// Fails only once headers are out; the id is still on ctx.
		_ = grpc.SetHeader(ctx, metadata.Pairs(RequestIDHeader, id))
		return handler(ctx, req)
	}
}

// WithRequestID returns a copy of ctx carrying id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// GetRequestID returns the id stored by RequestID, or "".
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
