package middleware

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/kirana-labs/kirana/internal/config"
	"github.com/kirana-labs/kirana/internal/identity"
)

// viewerKey is the echo context key holding the request identity.
const viewerKey = "kirana.viewer"

// claims is the token payload issued by the authentication provider.
type claims struct {
	Role    string `json:"role"`
	HotelID string `json:"hotel_id,omitempty"`
	jwt.RegisteredClaims
}

// Auth resolves bearer tokens into request identities. Requests without a
// valid token proceed as unauthenticated; endpoint policy decides what an
// unauthenticated viewer may see.
type Auth struct {
	secret []byte
	issuer string
	logger *zap.Logger
}

// NewAuth constructs the auth middleware from configuration.
func NewAuth(cfg config.Config, logger *zap.Logger) *Auth {
	return &Auth{
		secret: []byte(cfg.Auth.JWTSecret),
		issuer: cfg.Auth.Issuer,
		logger: logger,
	}
}

// Middleware attaches the resolved identity to every request.
func (a *Auth) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(viewerKey, a.resolve(c))
			return next(c)
		}
	}
}

func (a *Auth) resolve(c echo.Context) identity.Identity {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || raw == "" {
		return identity.Unauthenticated()
	}

	var cl claims
	token, err := jwt.ParseWithClaims(raw, &cl,
		func(t *jwt.Token) (any, error) { return a.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(a.issuer),
	)
	if err != nil || !token.Valid {
		a.logger.Debug("rejected bearer token", zap.Error(err))
		return identity.Unauthenticated()
	}

	role, err := identity.ParseRole(cl.Role)
	if err != nil {
		a.logger.Debug("token carries unknown role", zap.String("role", cl.Role))
		return identity.Unauthenticated()
	}

	switch role {
	case identity.RoleAdmin:
		return identity.Admin(cl.Subject)
	case identity.RoleDelivery:
		return identity.Delivery(cl.Subject)
	case identity.RoleHotelUser:
		viewer, err := identity.HotelUser(cl.Subject, cl.HotelID)
		if err != nil {
			a.logger.Debug("hotel token missing hotel_id", zap.String("sub", cl.Subject))
			return identity.Unauthenticated()
		}
		return viewer
	default:
		return identity.Unauthenticated()
	}
}

// Viewer returns the identity attached to the request.
func Viewer(c echo.Context) identity.Identity {
	if viewer, ok := c.Get(viewerKey).(identity.Identity); ok {
		return viewer
	}
	return identity.Unauthenticated()
}
