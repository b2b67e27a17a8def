package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/placedir/server/internal/api/problem"
	"github.com/placedir/server/internal/auth"
	"github.com/placedir/server/internal/domain/places"
)

const actorKey contextKey = "actor"

// Actor extracts the authenticated caller, if any.
func Actor(ctx context.Context) (places.Actor, bool) {
	actor, ok := ctx.Value(actorKey).(places.Actor)
	return actor, ok
}

func withActor(ctx context.Context, actor places.Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// RequireAuth rejects requests without a valid bearer token and stores the
// resulting actor in the request context.
func RequireAuth(signer *auth.Signer, env string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := bearerClaims(signer, r)
			if err != nil {
				problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Unauthorized", err, env)
				return
			}
			actor := places.Actor{ID: claims.Subject, Admin: claims.Role == auth.RoleAdmin}
			next.ServeHTTP(w, r.WithContext(withActor(r.Context(), actor)))
		})
	}
}

// RequireAdmin additionally rejects non-admin callers with 403.
func RequireAdmin(signer *auth.Signer, env string) func(http.Handler) http.Handler {
	requireAuth := RequireAuth(signer, env)
	return func(next http.Handler) http.Handler {
		return requireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := Actor(r.Context())
			if !ok || !actor.Admin {
				problem.Write(w, r, http.StatusForbidden, problem.TypeForbidden, "Forbidden", nil, env,
					problem.WithDetail("admin role required"))
				return
			}
			next.ServeHTTP(w, r)
		}))
	}
}

func bearerClaims(signer *auth.Signer, r *http.Request) (*auth.Claims, error) {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		return nil, auth.ErrInvalidToken
	}
	return signer.Parse(strings.TrimSpace(token))
}
