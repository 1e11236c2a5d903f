package httpx

import (
	"net/http"
	"net/url"
	"strings"
)

const (
	cacheControlNoStore = "no-store"
	cacheControlPrivate = "no-store, no-cache, must-revalidate, max-age=0"
)

// setNoStore marks the response as uncacheable by any cache.
func setNoStore(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", cacheControlNoStore)
}

// setPrivatePage sets the headers every privileged page carries before its body.
func setPrivatePage(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", cacheControlPrivate)
	w.Header().Set("Pragma", "no-cache")
}

// writeRedirect sends an uncacheable 303. HTMX requests get HX-Redirect and
// a 200 so the browser performs a full navigation instead of swapping a fragment.
func writeRedirect(w http.ResponseWriter, r *http.Request, target string) {
	setNoStore(w)
	if IsHTMX(r) {
		SetHXRedirect(w, target)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// returnPathFor is the path+query to come back to after signing in. For htmx
// requests the page the user is looking at matters, not the fragment URL.
func returnPathFor(r *http.Request) string {
	if IsHTMX(r) {
		if current := safeRedirectFromURL(r.Header.Get("Hx-Current-Url")); current != "" {
			return current
		}
	}
	return safeRedirectPath(r.URL.RequestURI())
}

// safeRedirectPath ensures the provided redirect is a same-origin relative path
// starting with "/" and not an absolute URL. Returns "/" when invalid.
func safeRedirectPath(candidate string) string {
	if candidate == "" {
		return "/"
	}
	if strings.HasPrefix(candidate, "//") || strings.HasPrefix(candidate, "/\\") {
		return "/"
	}
	u, err := url.Parse(candidate)
	if err != nil || u.IsAbs() || u.Host != "" || !strings.HasPrefix(u.Path, "/") {
		return "/"
	}
	return candidate
}

func safeRedirectFromURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	// Reject scheme-relative or host-only references.
	if u.Host != "" && !u.IsAbs() {
		return ""
	}
	if u.IsAbs() {
		return safeRedirectPath(u.RequestURI())
	}
	return safeRedirectPath(raw)
}
