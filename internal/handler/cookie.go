package handler

import (
	"net/http"
	"time"

	"github.com/bishowshrestha9/code-fyp/internal/auth"
)

// sessionCookieMaxAge is 30 days, fixed from issuance — not sliding.
const sessionCookieMaxAge = int(30 * 24 * time.Hour / time.Second)

// sessionCookie packages a freshly issued token for browser delivery.
//
// The same token also travels in the JSON body; the cookie exists for
// same-origin navigation (the OAuth redirect lands with it already set),
// while the body copy feeds the Authorization header on cross-origin calls
// from the separately hosted frontend.
//
// ATTRIBUTES BY DEPLOYMENT MODE:
//
//	production:  Secure, SameSite=None  — cross-site over HTTPS
//	development: not Secure, SameSite=Lax — browsers refuse SameSite=None
//	             without Secure, so the cross-site pair is production-only
func sessionCookie(token string, production bool) *http.Cookie {
	c := &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   sessionCookieMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if production {
		c.Secure = true
		c.SameSite = http.SameSiteNoneMode
	}
	return c
}

// clearSessionCookie tells the browser to drop the session cookie.
//
// All attributes except value and MaxAge must match sessionCookie exactly:
// browsers key cookies on (name, domain, path) AND refuse to clear a Secure
// cookie with a non-Secure Set-Cookie, so an attribute mismatch here would
// leave a zombie cookie behind.
func clearSessionCookie(production bool) *http.Cookie {
	c := sessionCookie("", production)
	c.MaxAge = -1
	return c
}
