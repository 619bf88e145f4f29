package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"dispatch/internal/core/domain/model/kernel"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const callerContextKey = "dispatch.caller"

var errMissingToken = errors.New("missing bearer token")

// Claims carries the caller identity: the subject is the caller id.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// IssueToken signs an HS256 token for id acting as role.
func IssueToken(secret []byte, id string, role kernel.Role, ttl time.Duration, now time.Time) (string, error) {
	if _, err := kernel.NewCaller(id, role); err != nil {
		return "", err
	}
	claims := Claims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// CallerMiddleware authenticates the request and stores the kernel.Caller on
// the echo context. The token comes from the Authorization header, or from the
// access_token query parameter for clients that cannot set headers (EventSource).
func CallerMiddleware(secret []byte) echo.MiddlewareFunc {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, err := bearerToken(c.Request())
			if err != nil {
				return writeStatus(c, http.StatusUnauthorized, err.Error())
			}

			var claims Claims
			_, err = parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
				return secret, nil
			})
			if err != nil {
				return writeStatus(c, http.StatusUnauthorized, "invalid token")
			}

			role, err := kernel.ParseRole(claims.Role)
			if err != nil {
				return writeStatus(c, http.StatusUnauthorized, "invalid role claim")
			}
			caller, err := kernel.NewCaller(claims.Subject, role)
			if err != nil {
				return writeStatus(c, http.StatusUnauthorized, "invalid subject claim")
			}

			c.Set(callerContextKey, caller)
			return next(c)
		}
	}
}

func bearerToken(r *http.Request) (string, error) {
	if header := r.Header.Get(echo.HeaderAuthorization); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			return "", fmt.Errorf("malformed %s header", echo.HeaderAuthorization)
		}
		return strings.TrimSpace(token), nil
	}
	if token := r.URL.Query().Get("access_token"); token != "" {
		return token, nil
	}
	return "", errMissingToken
}

func callerFrom(c echo.Context) kernel.Caller {
	caller, _ := c.Get(callerContextKey).(kernel.Caller)
	return caller
}
