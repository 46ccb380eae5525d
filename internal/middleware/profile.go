package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"

	"coffeeshop/internal/auth"
)

// ProfileKey holds the storage profile id of the request in the gin context.
const ProfileKey = "profile_id"

// NewCookieStore returns the profile cookie store, valid for 30 days.
func NewCookieStore(secret string) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 30,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// Profile resolves which storage profile a request works on. A bearer token
// wins; otherwise the profile cookie is used, and a first visit gets a fresh
// profile and cookie. A malformed or expired token is rejected.
func Profile(cookies sessions.Store, cookieName string, tokens *auth.Tokens, log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(c *gin.Context) {
		if header := c.GetHeader("Authorization"); header != "" {
			scheme, raw, ok := strings.Cut(header, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || raw == "" {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header"})
				return
			}
			id, err := tokens.Parse(raw)
			if err != nil {
				log.Debug("profile token rejected", zap.Error(err))
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid profile token"})
				return
			}
			c.Set(ProfileKey, id)
			c.Next()
			return
		}

		// a cookie that fails to decode yields a new empty session
		sess, _ := cookies.Get(c.Request, cookieName)
		id, _ := sess.Values[ProfileKey].(string)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
			sess.Values[ProfileKey] = id
			if err := sess.Save(c.Request, c.Writer); err != nil {
				log.Error("profile cookie not saved", zap.Error(err))
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
				return
			}
		}
		c.Set(ProfileKey, id)
		c.Next()
	}
}
