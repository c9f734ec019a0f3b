package htmx

import (
	"net/http"
	"strings"

	"github.com/a-h/templ"
)

// RequestHeaderKey is the header htmx sets on every request it issues.
const RequestHeaderKey = "HX-Request"

// IsHTMXRequest reports whether the request was initiated by htmx.
func IsHTMXRequest(r *http.Request) bool {
	if r == nil {
		return false
	}
	return strings.EqualFold(r.Header.Get(RequestHeaderKey), "true")
}

// Render writes component as an HTML response with the given status.
func Render(w http.ResponseWriter, r *http.Request, status int, component templ.Component) {
	templ.Handler(component, templ.WithStatus(status)).ServeHTTP(w, r)
}

// RenderPage writes fragment for htmx requests and full for everything else.
// If fragment is nil, full is used for both paths.
func RenderPage(w http.ResponseWriter, r *http.Request, fragment, full templ.Component) {
	target := full
	if IsHTMXRequest(r) && fragment != nil {
		target = fragment
	}
	if target == nil {
		target = fragment
	}
	if target == nil {
		return
	}
	Render(w, r, http.StatusOK, target)
}
