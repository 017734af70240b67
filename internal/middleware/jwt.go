// Package middleware provides shared request processing: JWT identity
// extraction, role enforcement and Redis-backed rate limiting. Token
// issuance lives in the external auth service; this package only
// verifies tokens signed with the shared secret.
package middleware

import (
    "net/http"
    "strings"

    "github.com/golang-jwt/jwt/v5"
    "github.com/labstack/echo/v4"
)

// JWTAuth returns an Echo middleware that validates a Bearer access
// token and injects the token's subject, role and name claims into the
// request context. Handlers read them via c.Get("user_id"),
// c.Get("role") and c.Get("user_name").
func JWTAuth(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            auth := c.Request().Header.Get("Authorization")
            if !strings.HasPrefix(auth, "Bearer ") {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
            }
            raw := strings.TrimPrefix(auth, "Bearer ")

            tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
                if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
                    return nil, echo.ErrUnauthorized
                }
                return []byte(secret), nil
            })
            if err != nil || !tok.Valid {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
            }

            claims, ok := tok.Claims.(jwt.MapClaims)
            if !ok {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
            }

            if sub, ok := claims["sub"].(string); ok {
                c.Set("user_id", sub)
            }
            if role, ok := claims["role"].(string); ok {
                c.Set("role", role)
            }
            if name, ok := claims["name"].(string); ok {
                c.Set("user_name", name)
            }
            return next(c)
        }
    }
}
