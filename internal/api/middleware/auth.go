package middleware

import (
	"crypto/subtle"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/joshnavoa/zakeke/internal/config"
)

const ClientContextKey = "zakeke_client"

// BasicAuth checks the single client id / secret pair Zakeke calls the
// catalog with
type BasicAuth struct {
	clientID   string
	secret     string
	secretHash string
	realm      string
	logger     *zap.Logger
}

// NewBasicAuth creates the authenticator from the Zakeke credentials. A
// bcrypt hash, when set, is checked instead of the plain secret.
func NewBasicAuth(cfg config.ZakekeConfig, logger *zap.Logger) *BasicAuth {
	if logger == nil {
		logger = zap.NewNop()
	}
	realm := cfg.AuthRealm
	if realm == "" {
		realm = "Zakeke Product Catalog API"
	}
	return &BasicAuth{
		clientID:   cfg.TenantID,
		secret:     cfg.APIKey,
		secretHash: cfg.APIKeyBcrypt,
		realm:      realm,
		logger:     logger,
	}
}

// Middleware aborts with 401 unless the request carries valid credentials
func (a *BasicAuth) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !a.Authorize(c) {
			return
		}
		c.Next()
	}
}

// Authorize checks the request and writes the 401 response itself when the
// credentials are missing or wrong
func (a *BasicAuth) Authorize(c *gin.Context) bool {
	if c.GetHeader("Authorization") == "" {
		a.reject(c, "Missing authorization header")
		return false
	}

	user, pass, ok := c.Request.BasicAuth()
	if !ok {
		a.reject(c, "Invalid authorization header format")
		return false
	}

	if !a.Verify(user, pass) {
		a.logger.Warn("Invalid catalog credentials",
			zap.String("path", c.Request.URL.Path),
			zap.String("client_id", user),
		)
		a.reject(c, "Invalid credentials")
		return false
	}

	c.Set(ClientContextKey, user)
	return true
}

// Verify compares a client id / secret pair in constant time
func (a *BasicAuth) Verify(user, pass string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(user), []byte(a.clientID)) == 1

	var passOK bool
	if a.secretHash != "" {
		passOK = VerifyAPIKey(pass, a.secretHash)
	} else {
		passOK = a.secret != "" && subtle.ConstantTimeCompare([]byte(pass), []byte(a.secret)) == 1
	}
	return userOK && passOK
}

func (a *BasicAuth) reject(c *gin.Context, msg string) {
	c.Header("WWW-Authenticate", fmt.Sprintf("Basic realm=%q", a.realm))
	c.JSON(http.StatusUnauthorized, gin.H{"error": msg})
	c.Abort()
}

// GetClientFromContext returns the authenticated client id
func GetClientFromContext(c *gin.Context) (string, bool) {
	v, exists := c.Get(ClientContextKey)
	if !exists {
		return "", false
	}
	id, ok := v.(string)
	return id, ok
}

// HashAPIKey hashes a secret for ZAKEKE_API_KEY_BCRYPT
func HashAPIKey(apiKey string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(apiKey), 10)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyAPIKey verifies an API key against a hash
func VerifyAPIKey(apiKey, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(apiKey))
	return err == nil
}
