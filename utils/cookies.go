package utils

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	AccessCookie  = "accessToken"
	RefreshCookie = "refreshToken"
)

// CookieOptions controls the attributes shared by both session cookies.
type CookieOptions struct {
	Secure bool
	Domain string
}

func (o CookieOptions) sameSite() http.SameSite {
	// SameSite=None is rejected by browsers without Secure.
	if o.Secure {
		return http.SameSiteNoneMode
	}
	return http.SameSiteLaxMode
}

func (o CookieOptions) set(c *gin.Context, name, value string, ttl time.Duration) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   o.Domain,
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   o.Secure,
		SameSite: o.sameSite(),
	})
}

func (o CookieOptions) SetSession(c *gin.Context, access string, accessTTL time.Duration, refresh string, refreshTTL time.Duration) {
	o.set(c, AccessCookie, access, accessTTL)
	o.set(c, RefreshCookie, refresh, refreshTTL)
}

func (o CookieOptions) ClearSession(c *gin.Context) {
	for _, name := range []string{AccessCookie, RefreshCookie} {
		http.SetCookie(c.Writer, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			Domain:   o.Domain,
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   o.Secure,
			SameSite: o.sameSite(),
		})
	}
}
