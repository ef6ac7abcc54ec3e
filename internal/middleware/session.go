package middleware

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/risetutor-api/internal/utils"
)

// SessionCookieName is the HTTP-only cookie carrying the signed session token.
const SessionCookieName = "rt_session"

const sessionLocalsKey = "session"

// ErrInvalidSession is returned when a session token cannot be trusted.
var ErrInvalidSession = errors.New("invalid session")

// Session is the authenticated identity attached to a request.
type Session struct {
	UserID         uint      `json:"id"`
	Role           string    `json:"role"`
	Email          string    `json:"email"`
	Name           string    `json:"name"`
	RegistrationID string    `json:"registrationId,omitempty"`
	Standard       string    `json:"standard,omitempty"`
	ExpiresAt      time.Time `json:"expiresAt"`
}

type sessionClaims struct {
	Role           string `json:"role"`
	Email          string `json:"email"`
	Name           string `json:"name"`
	RegistrationID string `json:"rid,omitempty"`
	Standard       string `json:"std,omitempty"`
	jwt.RegisteredClaims
}

// IssueSession signs a session token valid for ttl from now.
func IssueSession(secret string, session Session, ttl time.Duration, now time.Time) (string, time.Time, error) {
	if strings.TrimSpace(secret) == "" {
		return "", time.Time{}, fmt.Errorf("session secret missing")
	}
	expires := now.Add(ttl)
	claims := sessionClaims{
		Role:           strings.ToLower(session.Role),
		Email:          session.Email,
		Name:           session.Name,
		RegistrationID: session.RegistrationID,
		Standard:       session.Standard,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(session.UserID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expires, nil
}

// ParseSession validates a token and returns the session it carries.
func ParseSession(secret, tokenString string) (Session, error) {
	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return Session{}, ErrInvalidSession
	}

	userID, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || userID == 0 {
		return Session{}, ErrInvalidSession
	}

	session := Session{
		UserID:         uint(userID),
		Role:           normalizeRoleValue(claims.Role),
		Email:          claims.Email,
		Name:           claims.Name,
		RegistrationID: claims.RegistrationID,
		Standard:       claims.Standard,
	}
	if claims.ExpiresAt != nil {
		session.ExpiresAt = claims.ExpiresAt.Time
	}
	return session, nil
}

// SessionAuth resolves the session from the rt_session cookie, falling back to a bearer token.
// Requests without a valid session are rejected with 401.
func SessionAuth(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := strings.TrimSpace(c.Cookies(SessionCookieName))
		if tokenString == "" {
			tokenString = bearerToken(c.Get(fiber.HeaderAuthorization))
		}
		if tokenString == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
		}

		session, err := ParseSession(secret, tokenString)
		if err != nil {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid session")
		}

		c.Locals(sessionLocalsKey, session)
		c.Locals("user_id", session.UserID)
		c.Locals("user_role", session.Role)

		return c.Next()
	}
}

// SessionFromContext returns the session bound by SessionAuth.
func SessionFromContext(c *fiber.Ctx) (Session, bool) {
	if c == nil {
		return Session{}, false
	}
	session, ok := c.Locals(sessionLocalsKey).(Session)
	return session, ok
}

// SetSessionCookie writes the session token as an HTTP-only cookie.
func SetSessionCookie(c *fiber.Ctx, token string, expires time.Time, secure bool) {
	c.Cookie(&fiber.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HTTPOnly: true,
		Secure:   secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// ClearSessionCookie expires the session cookie.
func ClearSessionCookie(c *fiber.Ctx, secure bool) {
	c.Cookie(&fiber.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HTTPOnly: true,
		Secure:   secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func bearerToken(authorization string) string {
	const bearer = "bearer "
	if len(authorization) <= len(bearer) || !strings.EqualFold(authorization[:len(bearer)], bearer) {
		return ""
	}
	return strings.TrimSpace(authorization[len(bearer):])
}
