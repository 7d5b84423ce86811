// internal/api/middleware/origin.go
package middleware

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/newthinker/signaldesk/internal/api/response"
	"github.com/newthinker/signaldesk/internal/core"
)

// SameOrigin returns middleware that rejects state-changing requests a
// browser sent from another site. Requests without Sec-Fetch-Site,
// Origin or Referer (curl, scripts) are not browser form posts and pass.
func SameOrigin() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}

			if err := checkOrigin(r); err != nil {
				response.Error(w, http.StatusForbidden, core.WrapError(core.ErrForbidden, err))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func checkOrigin(r *http.Request) error {
	switch site := r.Header.Get("Sec-Fetch-Site"); site {
	case "", "same-origin", "none":
	default:
		return fmt.Errorf("sec-fetch-site is %s", site)
	}

	source := r.Header.Get("Origin")
	if source == "null" {
		return fmt.Errorf("opaque origin")
	}
	if source == "" {
		source = r.Header.Get("Referer")
	}
	if source == "" {
		return nil
	}

	u, err := url.Parse(source)
	if err != nil || u.Host == "" {
		return fmt.Errorf("unparseable origin %q", source)
	}
	if !strings.EqualFold(u.Host, r.Host) {
		return fmt.Errorf("origin %s does not match host %s", u.Host, r.Host)
	}
	return nil
}
