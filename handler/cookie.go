// file: handler/cookie.go

package handler

import (
	"go-auth-api/config"
	"net/http"
)

// Refresh tokens travel only in an HttpOnly cookie; access tokens travel in
// the response body and come back as a bearer header.

func refreshCookieName() string {
	return config.AppConfig.JWT.Refresh.CookieName
}

func refreshTokenFromRequest(r *http.Request) string {
	cookie, err := r.Cookie(refreshCookieName())
	if err != nil {
		return ""
	}
	return cookie.Value
}

func setRefreshCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName(),
		Value:    token,
		Path:     "/",
		MaxAge:   config.AppConfig.JWT.Refresh.ExpireDays * 24 * 60 * 60,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	})
}

func clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName(),
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	})
}
