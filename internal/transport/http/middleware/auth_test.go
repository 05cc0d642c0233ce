package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kirana-labs/kirana/internal/config"
	"github.com/kirana-labs/kirana/internal/identity"
)

const testSecret = "test-secret"

func testAuth() *Auth {
	return NewAuth(config.Config{Auth: config.Auth{
		JWTSecret: testSecret,
		Issuer:    "kirana-auth",
	}}, zap.NewNop())
}

func signToken(t *testing.T, cl claims) string {
	t.Helper()
	cl.Issuer = "kirana-auth"
	cl.ExpiresAt = jwt.NewNumericDate(time.Now().Add(time.Hour))
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, cl).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func resolveWith(t *testing.T, authorization string) identity.Identity {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	if authorization != "" {
		req.Header.Set(echo.HeaderAuthorization, authorization)
	}
	c := e.NewContext(req, httptest.NewRecorder())

	var got identity.Identity
	handler := testAuth().Middleware()(func(c echo.Context) error {
		got = Viewer(c)
		return nil
	})
	require.NoError(t, handler(c))
	return got
}

func TestAuthResolvesRoles(t *testing.T) {
	tests := []struct {
		name      string
		claims    claims
		wantRole  identity.Role
		wantHotel string
	}{
		{
			name:     "admin",
			claims:   claims{Role: "admin", RegisteredClaims: jwt.RegisteredClaims{Subject: "a1"}},
			wantRole: identity.RoleAdmin,
		},
		{
			name:     "delivery",
			claims:   claims{Role: "delivery", RegisteredClaims: jwt.RegisteredClaims{Subject: "d1"}},
			wantRole: identity.RoleDelivery,
		},
		{
			name:      "hotel_user",
			claims:    claims{Role: "user", HotelID: "KIR001", RegisteredClaims: jwt.RegisteredClaims{Subject: "u1"}},
			wantRole:  identity.RoleHotelUser,
			wantHotel: "KIR001",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			viewer := resolveWith(t, "Bearer "+signToken(t, tt.claims))
			assert.Equal(t, tt.wantRole, viewer.Role())
			if tt.wantHotel != "" {
				hotelID, ok := viewer.HotelID()
				require.True(t, ok)
				assert.Equal(t, tt.wantHotel, hotelID)
			}
		})
	}
}

func TestAuthFallsBackToUnauthenticated(t *testing.T) {
	tests := []struct {
		name          string
		authorization string
	}{
		{"no_header", ""},
		{"not_bearer", "Basic dXNlcjpwYXNz"},
		{"garbage_token", "Bearer not.a.jwt"},
		{"unknown_role", "Bearer "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth := tt.authorization
			if tt.name == "unknown_role" {
				auth = "Bearer " + signToken(t, claims{Role: "superuser", RegisteredClaims: jwt.RegisteredClaims{Subject: "x"}})
			}
			viewer := resolveWith(t, auth)
			assert.Equal(t, identity.RoleUnauthenticated, viewer.Role())
		})
	}
}

func TestAuthRejectsWrongSignature(t *testing.T) {
	cl := claims{Role: "admin", RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "a1",
		Issuer:    "kirana-auth",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, cl).SignedString([]byte("other-secret"))
	require.NoError(t, err)

	viewer := resolveWith(t, "Bearer "+token)
	assert.Equal(t, identity.RoleUnauthenticated, viewer.Role())
}

func TestAuthRejectsHotelTokenWithoutHotelID(t *testing.T) {
	viewer := resolveWith(t, "Bearer "+signToken(t, claims{Role: "user", RegisteredClaims: jwt.RegisteredClaims{Subject: "u1"}}))
	assert.Equal(t, identity.RoleUnauthenticated, viewer.Role())
}

func TestAuthRejectsWrongIssuer(t *testing.T) {
	cl := claims{Role: "admin", RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "a1",
		Issuer:    "someone-else",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, cl).SignedString([]byte(testSecret))
	require.NoError(t, err)

	viewer := resolveWith(t, "Bearer "+token)
	assert.Equal(t, identity.RoleUnauthenticated, viewer.Role())
}
