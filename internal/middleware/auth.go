package middleware

import (
	"context"
	"net/http"

	"taskit/internal/auth"
	"taskit/internal/handlers"
	"taskit/internal/logger"

	"go.uber.org/zap"
)

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (auth.Identity, error)
	Subscribe(fn func(auth.Event)) func()
}

// Authenticate resolves the bearer token into an identity on the request
// context. The request context is cancelled if its session signs out while
// the request is still in flight.
func Authenticate(authenticator Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := authenticator.Authenticate(r.Context(), auth.BearerToken(r))
			if err != nil {
				handlers.WriteAuthError(w, r, err)
				return
			}

			ctx, cancel := context.WithCancelCause(r.Context())
			defer cancel(nil)

			unsubscribe := authenticator.Subscribe(func(e auth.Event) {
				if e.Type == auth.SignedOut && e.SessionID == identity.SessionID {
					logger.Info("Auth: session ended during request",
						zap.String("request_id", GetRequestID(r.Context())),
						zap.String("user_id", identity.UserID))
					cancel(auth.ErrUnauthorized)
				}
			})
			defer unsubscribe()

			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(ctx, identity)))
		})
	}
}
