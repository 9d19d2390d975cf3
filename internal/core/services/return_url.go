package services

import (
	"net/url"
	"strings"
	"unicode"

	"github.com/custodia-labs/entra-login/internal/core/domain"
)

// returnHosts is the set of hosts an absolute return URL may point at.
type returnHosts map[string]struct{}

// newReturnHosts accepts bare hosts ("www.example.com:8443") or URLs.
func newReturnHosts(entries []string) returnHosts {
	hosts := make(returnHosts, len(entries))
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if strings.Contains(entry, "://") {
			entry = hostOf(entry)
		}
		if entry != "" {
			hosts[strings.ToLower(entry)] = struct{}{}
		}
	}
	return hosts
}

// safeReturnURL keeps raw when it stays on this site: a path starting with
// a single "/", or an http(s) URL whose host is allowed or belongs to one
// of cfg's redirect URIs. Anything else becomes "/".
func (h returnHosts) safeReturnURL(raw string, cfg *domain.OAuthConfiguration) string {
	if raw == "" || strings.ContainsRune(raw, '\\') || strings.IndexFunc(raw, unicode.IsControl) >= 0 {
		return "/"
	}
	if strings.HasPrefix(raw, "/") {
		if strings.HasPrefix(raw, "//") {
			return "/"
		}
		return raw
	}

	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "/"
	}
	host := strings.ToLower(u.Host)
	if _, ok := h[host]; ok {
		return raw
	}
	if cfg != nil {
		for _, redirect := range []string{cfg.RedirectURIPrimary, cfg.RedirectURIAdministrative} {
			if hostOf(redirect) == host {
				return raw
			}
		}
	}
	return "/"
}

// hostOf returns the lowercase host[:port] of an absolute URL, or "".
func hostOf(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Host)
}

// splitURL separates raw into what precedes the query, the raw query and
// the fragment including its '#'.
func splitURL(raw string) (base, query, fragment string) {
	if i := strings.IndexByte(raw, '#'); i >= 0 {
		raw, fragment = raw[:i], raw[i:]
	}
	base, query, _ = strings.Cut(raw, "?")
	return base, query, fragment
}

// stripLoginParams removes leftover success/error indicators so retries
// do not accumulate them. Every other query segment is kept byte for
// byte. An empty URL becomes "/".
func stripLoginParams(raw string) string {
	if raw == "" {
		return "/"
	}
	base, query, fragment := splitURL(raw)
	if query == "" {
		return raw
	}

	segments := strings.Split(query, "&")
	kept := segments[:0:0]
	for _, segment := range segments {
		if !isLoginParam(segment) {
			kept = append(kept, segment)
		}
	}
	if len(kept) == len(segments) {
		return raw
	}
	if len(kept) == 0 {
		return base + fragment
	}
	return base + "?" + strings.Join(kept, "&") + fragment
}

func isLoginParam(segment string) bool {
	key, _, _ := strings.Cut(segment, "=")
	if unescaped, err := url.QueryUnescape(key); err == nil {
		key = unescaped
	}
	return key == domain.ParamLoginError || key == domain.ParamLoginSuccess
}

// appendParam adds key=value after the existing query of raw.
func appendParam(raw, key, value string) string {
	base, query, fragment := splitURL(raw)
	param := url.QueryEscape(key) + "=" + url.QueryEscape(value)
	if query == "" {
		return base + "?" + param + fragment
	}
	return base + "?" + query + "&" + param + fragment
}
