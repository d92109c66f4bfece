package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/pwaspark/pwagen/internal/logger"
)

// ContextKey is the echo.Context key holding the resolved User.
const ContextKey = "user"

// Middleware resolves the bearer token on each request. Requests without a
// token continue anonymously; requests with a token that fails
// verification are rejected with 401. A nil verifier leaves every request
// anonymous.
func Middleware(v *Verifier, log logger.Logger) echo.MiddlewareFunc {
	if log == nil {
		log = logger.Discard()
	}
	log = log.Module("auth")

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := bearerToken(c.Request())
			if !ok || v == nil {
				return next(c)
			}

			user, err := v.Verify(token)
			if err != nil {
				log.Debug("rejected bearer token",
					logger.String("path", c.Path()),
					logger.Error(err))
				return c.JSON(http.StatusUnauthorized, map[string]string{
					"error": "invalid or expired token",
				})
			}

			c.Set(ContextKey, user)
			c.SetRequest(c.Request().WithContext(WithUser(c.Request().Context(), user)))
			return next(c)
		}
	}
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get(echo.HeaderAuthorization)
	scheme, token, found := strings.Cut(h, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
