package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-sla/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-sla/pkg/util/errorutil"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", 5)
	token, expires, err := tm.IssueStaffToken("agent-1", domain.StaffRoleTeamLead)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(5*time.Minute), expires, 5*time.Second)

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "agent-1", claims.SubjectID)
	assert.Equal(t, domain.SubjectTypeStaff, claims.Subject)
	assert.Equal(t, domain.StaffRoleTeamLead, *claims.Role)

	_, err = NewTokenManager("other", 5).ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseTokenRejectsForeignIssuer(t *testing.T) {
	claims := &Claims{
		SubjectID: "agent-1",
		Subject:   domain.SubjectTypeStaff,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "someone-else",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = NewTokenManager("secret", 5).ParseToken(token)
	assert.Error(t, err)
}

func TestParseTokenExpired(t *testing.T) {
	tm := NewTokenManager("secret", 5)
	tm.now = func() time.Time { return time.Now().Add(-time.Hour) }
	token, _, err := tm.IssueStaffToken("agent-1", domain.StaffRoleAgent)
	require.NoError(t, err)

	tm.now = time.Now
	_, err = tm.ParseToken(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestIssueStaffTokenValidatesInput(t *testing.T) {
	tm := NewTokenManager("secret", 5)

	_, _, err := tm.IssueStaffToken("", domain.StaffRoleAgent)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, _, err = tm.IssueStaffToken("agent-1", domain.StaffRole("CUSTOMER"))
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer  abc ", "abc", true},
		{"Bearer", "", false},
		{"Bearer ", "", false},
		{"Token abc", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, err := bearerToken(tt.header)
		if !tt.ok {
			assert.Error(t, err, "header %q", tt.header)
			continue
		}
		require.NoError(t, err, "header %q", tt.header)
		assert.Equal(t, tt.want, got)
	}
}

func newTestApp(tm *TokenManager, roles ...domain.StaffRole) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			de := apperrors.ToDomainError(err)
			return c.Status(de.HTTPStatus).SendString(de.Code)
		},
	})
	app.Get("/protected", NewAuthMiddleware(tm).Handle, RequireStaffRole(roles...), func(c *fiber.Ctx) error {
		p, _ := PrincipalFromContext(c)
		return c.SendString(p.SubjectID)
	})
	return app
}

func TestMiddlewareAndRoles(t *testing.T) {
	tm := NewTokenManager("secret", 5)
	agent, _, err := tm.IssueStaffToken("agent-1", domain.StaffRoleAgent)
	require.NoError(t, err)
	admin, _, err := tm.IssueStaffToken("admin-1", domain.StaffRoleAdmin)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		roles  []domain.StaffRole
		status int
	}{
		{"missing header", "", nil, http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", nil, http.StatusUnauthorized},
		{"garbage token", "Bearer abc", nil, http.StatusUnauthorized},
		{"any staff", "Bearer " + agent, nil, http.StatusOK},
		{"role not allowed", "Bearer " + agent, []domain.StaffRole{domain.StaffRoleAdmin}, http.StatusForbidden},
		{"role allowed", "Bearer " + admin, []domain.StaffRole{domain.StaffRoleAdmin}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := newTestApp(tm, tt.roles...).Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}
