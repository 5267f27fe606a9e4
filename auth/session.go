package auth

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"animelog/models"
	"animelog/repositories"
	"animelog/web"

	restful "github.com/emicklei/go-restful/v3"
	"github.com/golang-jwt/jwt/v4"
	"gorm.io/gorm"
)

// SessionCookieName carries the signed session token. The cookie is opaque to
// the client; all state lives in the signed claims.
const SessionCookieName = "animelog_session"

// UserAttribute is the request attribute the filters store the resolved user
// under for downstream handlers.
const UserAttribute = "session_user"

// SessionClaims are the custom claims embedded in the session token.
type SessionClaims struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// SessionGate establishes, validates and tears down the authenticated session
// context. Every protected route consults it first.
type SessionGate struct {
	signingKey []byte
	ttl        time.Duration
	users      repositories.UserRepository
}

// NewSessionGate creates a SessionGate signing tokens with the given key.
func NewSessionGate(signingKey []byte, ttl time.Duration, users repositories.UserRepository) *SessionGate {
	return &SessionGate{signingKey: signingKey, ttl: ttl, users: users}
}

// GenerateToken creates a new signed session token for the given user.
func (g *SessionGate) GenerateToken(user *models.User) (string, error) {
	now := time.Now()
	claims := &SessionClaims{
		UserID:   user.ID,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(g.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    "animelog",
			Subject:   "session",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(g.signingKey)
}

// ParseToken validates a session token and returns its claims.
func (g *SessionGate) ParseToken(tokenString string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return g.signingKey, nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*SessionClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

// Establish starts an authenticated session for the user by setting the
// session cookie on the response.
func (g *SessionGate) Establish(resp *restful.Response, user *models.User) error {
	token, err := g.GenerateToken(user)
	if err != nil {
		return err
	}
	http.SetCookie(resp, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(g.ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Clear tears the session down by expiring the cookie.
func (g *SessionGate) Clear(resp *restful.Response) {
	http.SetCookie(resp, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// resolve returns the authenticated user for the request, or nil when the
// session is absent, corrupt, or references a user that no longer exists.
// The stale-user case clears the cookie so the client re-authenticates.
func (g *SessionGate) resolve(req *restful.Request, resp *restful.Response) *models.User {
	cookie, err := req.Request.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}

	claims, err := g.ParseToken(cookie.Value)
	if err != nil {
		g.Clear(resp)
		return nil
	}

	user, err := g.users.FindByID(claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			g.Clear(resp)
		}
		return nil
	}
	return user
}

// PageFilter guards server-rendered routes: anonymous requests are redirected
// to the login page with a notice.
func (g *SessionGate) PageFilter() restful.FilterFunction {
	return func(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
		user := g.resolve(req, resp)
		if user == nil {
			web.SetFlash(resp, web.FlashError, "Please log in first.")
			http.Redirect(resp, req.Request, "/login", http.StatusSeeOther)
			return
		}
		req.SetAttribute(UserAttribute, user)
		chain.ProcessFilter(req, resp)
	}
}

// APIFilter guards JSON routes: anonymous requests get a 401 body, no redirect.
func (g *SessionGate) APIFilter() restful.FilterFunction {
	return func(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
		user := g.resolve(req, resp)
		if user == nil {
			_ = resp.WriteHeaderAndJson(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"}, restful.MIME_JSON)
			return
		}
		req.SetAttribute(UserAttribute, user)
		chain.ProcessFilter(req, resp)
	}
}

// UserFrom extracts the authenticated user stored by the filters.
func UserFrom(req *restful.Request) (*models.User, bool) {
	user, ok := req.Attribute(UserAttribute).(*models.User)
	return user, ok
}
