package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Team-7-graduated-project/HelloB-sub001/internal/config"
	"github.com/Team-7-graduated-project/HelloB-sub001/internal/infrastructure/httpserver/responses"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

// UserIDKey is the gin context key holding the caller's user id.
const UserIDKey = "user_id"

var errInvalidToken = errors.New("auth: invalid token")

// Validator issues and verifies HS256 bearer tokens whose subject is the user id.
// With auth disabled it trusts the X-User-ID header or the user_id query parameter.
type Validator struct {
	enabled bool
	secret  []byte
	issuer  string
	ttl     time.Duration
	log     zerolog.Logger
	now     func() time.Time
}

// NewValidator builds a Validator from config.
func NewValidator(cfg *config.Config, log zerolog.Logger) *Validator {
	return &Validator{
		enabled: cfg.AuthEnabled,
		secret:  []byte(cfg.AuthSecret),
		issuer:  cfg.AuthIssuer,
		ttl:     cfg.AuthTokenTTL,
		log:     log,
		now:     time.Now,
	}
}

// Issue mints a token for userID.
func (v *Validator) Issue(userID string) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", errors.New("auth: user id is required")
	}
	if len(v.secret) == 0 {
		return "", errors.New("auth: AUTH_SECRET is not configured")
	}
	now := v.now()
	claims := jwt.RegisteredClaims{
		Subject:  userID,
		Issuer:   v.issuer,
		IssuedAt: jwt.NewNumericDate(now),
	}
	if v.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(v.ttl))
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

// Parse validates tokenString and returns its subject.
func (v *Validator) Parse(tokenString string) (string, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(v.now),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errInvalidToken, err)
	}
	if !token.Valid || strings.TrimSpace(claims.Subject) == "" {
		return "", errInvalidToken
	}
	return claims.Subject, nil
}

// Middleware resolves the caller identity and stores it under UserIDKey.
// Tokens are read from the Authorization header, or from the token query
// parameter for WebSocket upgrades where browsers cannot set headers.
func (v *Validator) Middleware() gin.HandlerFunc {
	if v == nil || !v.enabled {
		return func(c *gin.Context) {
			userID := strings.TrimSpace(c.GetHeader("X-User-ID"))
			if userID == "" {
				userID = strings.TrimSpace(c.Query("user_id"))
			}
			if userID == "" {
				abortUnauthorized(c, "missing user identity")
				return
			}
			c.Set(UserIDKey, userID)
			c.Next()
		}
	}

	return func(c *gin.Context) {
		tokenString := bearerToken(c.GetHeader("Authorization"))
		if tokenString == "" {
			tokenString = strings.TrimSpace(c.Query("token"))
		}
		if tokenString == "" {
			abortUnauthorized(c, "missing bearer token")
			return
		}

		userID, err := v.Parse(tokenString)
		if err != nil {
			v.log.Debug().Err(err).Msg("jwt validation failed")
			abortUnauthorized(c, "invalid token")
			return
		}

		c.Set(UserIDKey, userID)
		c.Next()
	}
}

// UserID returns the identity resolved by the middleware.
func UserID(c *gin.Context) string {
	if v, ok := c.Get(UserIDKey); ok {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func abortUnauthorized(c *gin.Context, message string) {
	responses.WriteError(c, responses.ErrorTypeUnauthorized, message)
}
