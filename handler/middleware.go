package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/pgalanos/crm-api/auth"
	"go.uber.org/zap"
)

// Authenticate verifies the bearer token on every request and stores the
// caller's user id on the context. The three failure modes keep their
// historical messages so existing clients can match on them.
func Authenticate(tokens *auth.Authenticator, log *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			header := r.Header.Get("Authorization")
			if header == "" {
				respondErr(ctx, rw, http.StatusUnauthorized, errors.New("No token provided"))
				return
			}

			token := strings.TrimPrefix(header, "Bearer ")
			if token == "" {
				respondErr(ctx, rw, http.StatusUnauthorized, errors.New("Invalid token format"))
				return
			}

			userID, err := tokens.Verify(token)
			if err != nil {
				log.Errorw("Authenticate", "error", err.Error())
				respondErr(ctx, rw, http.StatusUnauthorized, errors.New("Invalid or expired token"))
				return
			}

			next.ServeHTTP(rw, r.WithContext(auth.WithUserID(ctx, userID)))
		})
	}
}
