package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"mandihub/internal/models"
	"mandihub/internal/util"

	"github.com/gin-gonic/gin"
)

const identityKey = "identity"

// ErrUnauthenticated means the request carried no usable identity.
var ErrUnauthenticated = errors.New("not authenticated")

// Identity is the caller as vouched for by the identity service.
type Identity struct {
	UserID string
	Role   models.Role
}

// Authenticator resolves the caller's identity from a request. Credential
// validation itself lives in the identity service at the edge; this service
// only consumes its verdict.
type Authenticator interface {
	Authenticate(c *gin.Context) (*Identity, error)
}

// HeaderAuthenticator trusts the identity headers injected by the gateway
// after it has validated the bearer token.
type HeaderAuthenticator struct{}

// Authenticate reads the gateway identity headers
func (HeaderAuthenticator) Authenticate(c *gin.Context) (*Identity, error) {
	userID := c.GetHeader("X-User-Id")
	if userID == "" {
		return nil, ErrUnauthenticated
	}
	role, ok := models.ParseRole(c.GetHeader("X-User-Role"))
	if !ok {
		return nil, ErrUnauthenticated
	}
	return &Identity{UserID: userID, Role: role}, nil
}

// authMiddleware resolves and stores the caller identity, rejecting
// unauthenticated requests.
func authMiddleware(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, err := auth.Authenticate(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Not authorized",
			})
			return
		}
		c.Set(identityKey, identity)
		c.Next()
	}
}

// requireRole gates a route group to a closed set of roles.
func requireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := identityFrom(c)
		for _, role := range roles {
			if identity.Role == role {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error": "Not authorized for this role",
		})
	}
}

// identityFrom returns the authenticated caller. Only valid behind
// authMiddleware.
func identityFrom(c *gin.Context) *Identity {
	return c.MustGet(identityKey).(*Identity)
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
