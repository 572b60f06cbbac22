package middleware

import "github.com/labstack/echo/v4"

// OperatorID is the authenticated operator, or "anon" before JWTAuth ran.
func OperatorID(c echo.Context) string {
	if s, ok := c.Get(KeyOperatorID).(string); ok && s != "" {
		return s
	}
	return "anon"
}

// Role is the operator's lower-cased role claim, empty when absent.
func Role(c echo.Context) string {
	s, _ := c.Get(KeyRole).(string)
	return s
}

// AccessToken is the operator's raw bearer token.
func AccessToken(c echo.Context) string {
	s, _ := c.Get(KeyAccessToken).(string)
	return s
}
