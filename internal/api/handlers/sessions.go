package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/bmex-dev/leveldensity/internal/session"
)

const sessionLocalsKey = "session_id"

// Sessions binds requests to a session through a cookie.
type Sessions struct {
	store      session.Store
	cookieName string
	ttl        time.Duration
}

func NewSessions(store session.Store, cookieName string, ttl time.Duration) *Sessions {
	if cookieName == "" {
		cookieName = "ld_session"
	}
	return &Sessions{store: store, cookieName: cookieName, ttl: ttl}
}

// For returns the request's session, starting a new one and setting the
// cookie when the request carries none.
func (s *Sessions) For(c *fiber.Ctx) *session.Session {
	if id, ok := c.Locals(sessionLocalsKey).(string); ok && id != "" {
		return session.Open(s.store, id)
	}

	id := c.Cookies(s.cookieName)
	sess := session.Open(s.store, id)
	if sess.ID != id {
		c.Cookie(&fiber.Cookie{
			Name:     s.cookieName,
			Value:    sess.ID,
			Path:     "/",
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteLaxMode,
			Expires:  time.Now().Add(s.ttl),
		})
	}
	c.Locals(sessionLocalsKey, sess.ID)
	return sess
}
