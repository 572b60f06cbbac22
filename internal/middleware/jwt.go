// Package middleware holds the Echo middleware shared by every console
// route: operator authentication, role checks, the Redis response cache and
// rate limiter, and request logging.
package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-pms-console/internal/pmsapi"
)

// Context keys set by JWTAuth.
const (
	KeyOperatorID  = "operator_id"
	KeyRole        = "role"
	KeyAccessToken = "access_token"
)

// OperatorClaims is the payload of an operator access token.  The PMS
// issues these tokens and the console shares its signing secret.
type OperatorClaims struct {
	Role string `json:"role"`
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// JWTAuth validates the Bearer access token and stores the operator id,
// role and raw token in the Echo context.  The raw token is also attached
// to the request context so upstream PMS calls run as the operator.
func JWTAuth(secret string) echo.MiddlewareFunc {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))

			claims := &OperatorClaims{}
			tok, err := parser.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
				return []byte(secret), nil
			})
			if err != nil || !tok.Valid {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			if claims.Subject == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
			}

			c.Set(KeyOperatorID, claims.Subject)
			c.Set(KeyRole, strings.ToLower(claims.Role))
			c.Set(KeyAccessToken, raw)
			req := c.Request()
			c.SetRequest(req.WithContext(pmsapi.WithBearer(req.Context(), raw)))
			return next(c)
		}
	}
}
