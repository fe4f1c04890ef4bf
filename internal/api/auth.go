package api

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
)

const RoleAdmin = "admin"

type AdminClaims struct {
	Name string `json:"name"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// AdminAuth accepts HS256 tokens signed with secret whose role is admin.
func AdminAuth(secret string) []echo.MiddlewareFunc {
	jwtMiddleware := echojwt.WithConfig(echojwt.Config{
		SigningKey: []byte(secret),
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(AdminClaims)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return c.JSON(401, map[string]string{"error": "Unauthorized"})
		},
	})

	requireAdmin := func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := c.Get("user").(*jwt.Token)
			if !ok {
				return c.JSON(401, map[string]string{"error": "Unauthorized"})
			}
			claims, ok := token.Claims.(*AdminClaims)
			if !ok || claims.Role != RoleAdmin {
				return c.JSON(403, map[string]string{"error": "Forbidden"})
			}
			return next(c)
		}
	}

	return []echo.MiddlewareFunc{jwtMiddleware, requireAdmin}
}

// SignAdminToken issues a token accepted by AdminAuth.
func SignAdminToken(secret, name string, ttl time.Duration) (string, error) {
	claims := &AdminClaims{
		Name: name,
		Role: RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	tkn := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tkn.SignedString([]byte(secret))
}
