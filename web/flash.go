package web

import (
	"net/http"
	"net/url"
	"strings"
)

const flashCookieName = "animelog_flash"

// Flash kinds shown to the user on the next rendered page.
const (
	FlashSuccess = "success"
	FlashError   = "error"
)

// Flash is a one-shot notice carried across a redirect.
type Flash struct {
	Kind    string
	Message string
}

// SetFlash queues a notice for the next page render. Sessions are stateless
// signed cookies, so the notice travels in its own short-lived cookie.
func SetFlash(w http.ResponseWriter, kind, message string) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    url.QueryEscape(kind + "|" + message),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// PopFlash reads and clears the queued notice, if any.
func PopFlash(w http.ResponseWriter, r *http.Request) *Flash {
	cookie, err := r.Cookie(flashCookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}

	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	decoded, err := url.QueryUnescape(cookie.Value)
	if err != nil {
		return nil
	}
	kind, message, found := strings.Cut(decoded, "|")
	if !found {
		return &Flash{Kind: FlashError, Message: decoded}
	}
	return &Flash{Kind: kind, Message: message}
}
