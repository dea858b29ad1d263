package auth

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
)

// SessionCookie is the cookie the browser client stores the token in. API
// clients send the same token as a bearer header instead.
const SessionCookie = "provost_session"

// publicPaths are reachable without a session.
var publicPaths = map[string]struct{}{
	"/":            {},
	"/login":       {},
	"/register":    {},
	"/healthz":     {},
	"/api/health":  {},
	"/metrics":     {},
	"/favicon.ico": {},
}

// publicPrefixes are path prefixes reachable without a session. The auth
// endpoints themselves must stay open or nobody could ever log in.
var publicPrefixes = []string{
	"/api/auth/login",
	"/api/auth/register",
	"/static/",
}

func isPublicPath(path string) bool {
	if _, ok := publicPaths[path]; ok {
		return true
	}
	for _, prefix := range publicPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// ExtractToken pulls the session token from the Authorization header or,
// failing that, the session cookie.
func ExtractToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return parts[1]
		}
		return ""
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return c.Value
	}
	return ""
}

// EdgeMiddleware is the request-interception layer: a cheap, coarse filter
// that runs before any handler. It rejects requests lacking a valid token
// for any non-public path, and for tenant-scoped page paths it checks only
// that the token's membership list contains the leading tenant slug. Role
// and permission checks are left to the precise guard inside handlers.
//
// API paths answer 401 JSON; page paths redirect to the login screen with a
// callbackUrl so the user returns where they were headed.
//
// onReject, when given, is invoked with the rejection reason ("missing",
// "invalid", "expired", "tenant") so callers can count rejections.
func EdgeMiddleware(tm *TokenManager, onReject ...func(reason string)) func(http.Handler) http.Handler {
	notify := func(reason string) {
		for _, fn := range onReject {
			fn(reason)
		}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path

			if isPublicPath(path) {
				next.ServeHTTP(w, r)
				return
			}

			token := ExtractToken(r)
			if token == "" {
				notify("missing")
				rejectUnauthenticated(w, r)
				return
			}

			sess, err := tm.Rehydrate(token)
			if err != nil {
				if IsExpired(err) {
					notify("expired")
				} else {
					notify("invalid")
				}
				rejectUnauthenticated(w, r)
				return
			}

			// Coarse tenant scoping for page paths: /{tenantSlug}/...
			segments := strings.Split(strings.Trim(path, "/"), "/")
			first := ""
			if len(segments) > 0 {
				first = segments[0]
			}
			if first != "" && first != "api" && first != "public" {
				if sess.MembershipByTenantSlug(first) == nil {
					notify("tenant")
					loginURL := url.URL{Path: "/login"}
					q := loginURL.Query()
					q.Set("error", "tenant")
					loginURL.RawQuery = q.Encode()
					http.Redirect(w, r, loginURL.String(), http.StatusFound)
					return
				}
			}

			next.ServeHTTP(w, r.WithContext(ContextWithSession(r.Context(), sess)))
		})
	}
}

// rejectUnauthenticated answers 401 JSON on API paths and a login redirect
// carrying a return-to URL on page paths.
func rejectUnauthenticated(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]string{
				"code":    "unauthenticated",
				"message": ErrUnauthenticated.Error(),
			},
		})
		return
	}

	loginURL := url.URL{Path: "/login"}
	q := loginURL.Query()
	callback := r.URL.Path
	if r.URL.RawQuery != "" {
		callback += "?" + r.URL.RawQuery
	}
	q.Set("callbackUrl", callback)
	loginURL.RawQuery = q.Encode()
	http.Redirect(w, r, loginURL.String(), http.StatusFound)
}
