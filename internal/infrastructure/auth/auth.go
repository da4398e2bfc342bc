package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/janhq/sessions-api/internal/config"
	"github.com/janhq/sessions-api/internal/utils/platformerrors"
)

// ContextSubjectKey holds the verified token subject on the gin context.
const ContextSubjectKey = "auth_subject"

// Validator guards write routes with JWTs verified against a JWKS.
type Validator struct {
	enabled  bool
	issuer   string
	audience string
	keyfunc  jwt.Keyfunc
	jwks     *keyfunc.JWKS
	log      zerolog.Logger
}

// NewValidator initializes JWKS fetching when auth is enabled. A disabled
// validator lets every request through.
func NewValidator(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Validator, error) {
	log = log.With().Str("component", "auth").Logger()
	if !cfg.AuthEnabled {
		return &Validator{log: log}, nil
	}

	options := keyfunc.Options{
		Ctx:               ctx,
		RefreshInterval:   time.Hour,
		RefreshUnknownKID: true,
		RefreshErrorHandler: func(err error) {
			log.Error().Err(err).Msg("jwks refresh error")
		},
	}

	jwks, err := keyfunc.Get(cfg.AuthJWKSURL, options)
	if err != nil {
		return nil, err
	}

	v := NewValidatorWithKeyfunc(cfg.AuthIssuer, cfg.AuthAudience, jwks.Keyfunc, log)
	v.jwks = jwks
	return v, nil
}

// NewValidatorWithKeyfunc builds an enabled validator around a key lookup.
func NewValidatorWithKeyfunc(issuer, audience string, kf jwt.Keyfunc, log zerolog.Logger) *Validator {
	return &Validator{
		enabled:  true,
		issuer:   issuer,
		audience: audience,
		keyfunc:  kf,
		log:      log,
	}
}

// Enabled reports whether tokens are checked.
func (v *Validator) Enabled() bool {
	return v != nil && v.enabled
}

// Close stops the background JWKS refresh.
func (v *Validator) Close() {
	if v != nil && v.jwks != nil {
		v.jwks.EndBackground()
	}
}

// Middleware enforces JWT auth when enabled.
func (v *Validator) Middleware() gin.HandlerFunc {
	if !v.Enabled() {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return func(c *gin.Context) {
		tokenString := bearerToken(c.GetHeader("Authorization"))
		if tokenString == "" {
			platformerrors.AbortUnauthorized(c, "missing bearer token")
			return
		}

		subject, err := v.verify(tokenString)
		if err != nil {
			v.log.Debug().Err(err).Str("path", c.FullPath()).Msg("rejected token")
			platformerrors.AbortUnauthorized(c, "invalid token")
			return
		}

		c.Set(ContextSubjectKey, subject)
		c.Next()
	}
}

func (v *Validator) verify(tokenString string) (string, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"RS256", "RS384", "RS512"}),
		jwt.WithIssuer(v.issuer),
		jwt.WithExpirationRequired(),
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	token, err := jwt.Parse(tokenString, v.keyfunc, opts...)
	if err != nil {
		return "", err
	}
	if !token.Valid {
		return "", errors.New("token not valid")
	}
	return token.Claims.GetSubject()
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
