package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Team-7-graduated-project/HelloB-sub001/internal/config"
	"github.com/Team-7-graduated-project/HelloB-sub001/internal/infrastructure/httpserver/middlewares"
	"github.com/Team-7-graduated-project/HelloB-sub001/internal/infrastructure/httpserver/responses"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newValidator(enabled bool) *Validator {
	return NewValidator(&config.Config{
		AuthEnabled:  enabled,
		AuthSecret:   "test-secret",
		AuthIssuer:   "hellob",
		AuthTokenTTL: time.Hour,
	}, zerolog.Nop())
}

func TestIssueAndParse(t *testing.T) {
	v := newValidator(true)

	token, err := v.Issue("guest-1")
	require.NoError(t, err)

	userID, err := v.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "guest-1", userID)
}

func TestParseRejects(t *testing.T) {
	v := newValidator(true)
	token, err := v.Issue("guest-1")
	require.NoError(t, err)

	t.Run("wrong secret", func(t *testing.T) {
		other := newValidator(true)
		other.secret = []byte("other-secret")
		_, err := other.Parse(token)
		assert.Error(t, err)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := newValidator(true)
		other.issuer = "someone-else"
		_, err := other.Parse(token)
		assert.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		later := newValidator(true)
		later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		_, err := later.Parse(token)
		assert.Error(t, err)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := v.Parse("not-a-token")
		assert.Error(t, err)
	})
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	enabled := newValidator(true)
	token, err := enabled.Issue("host-7")
	require.NoError(t, err)

	tests := []struct {
		name       string
		validator  *Validator
		target     string
		header     map[string]string
		wantStatus int
		wantUser   string
	}{
		{
			name:       "bearer header",
			validator:  enabled,
			target:     "/me",
			header:     map[string]string{"Authorization": "Bearer " + token},
			wantStatus: http.StatusOK,
			wantUser:   "host-7",
		},
		{
			name:       "token query",
			validator:  enabled,
			target:     "/me?token=" + token,
			wantStatus: http.StatusOK,
			wantUser:   "host-7",
		},
		{
			name:       "missing token",
			validator:  enabled,
			target:     "/me",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "dev header",
			validator:  newValidator(false),
			target:     "/me",
			header:     map[string]string{"X-User-ID": "guest-2"},
			wantStatus: http.StatusOK,
			wantUser:   "guest-2",
		},
		{
			name:       "dev query",
			validator:  newValidator(false),
			target:     "/me?user_id=guest-3",
			wantStatus: http.StatusOK,
			wantUser:   "guest-3",
		},
		{
			name:       "dev anonymous",
			validator:  newValidator(false),
			target:     "/me",
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/me", tt.validator.Middleware(), func(c *gin.Context) {
				c.String(http.StatusOK, UserID(c))
			})

			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantUser != "" {
				assert.Equal(t, tt.wantUser, w.Body.String())
			}
		})
	}
}

func TestMiddlewareUnauthorizedBody(t *testing.T) {
	r := gin.New()
	r.Use(middlewares.RequestID())
	r.GET("/me", newValidator(true).Middleware(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(middlewares.RequestIDHeader, "req-42")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	var body responses.HTTPErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotNil(t, body.Error)
	assert.Equal(t, string(responses.ErrorTypeUnauthorized), body.Error.Type)
	assert.Equal(t, "missing bearer token", body.Error.Message)
	assert.Equal(t, "req-42", body.Error.RequestID)
}
