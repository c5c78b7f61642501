package server

import (
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"
)

// corsPolicy answers cross-origin requests from the registration form. The
// methods it advertises for a path are the ones actually routed there.
type corsPolicy struct {
	allowAll bool
	origins  map[string]struct{}
	routes   chi.Routes
	methods  []string
}

// newCORSPolicy accepts "*" or explicit origins. An empty list allows any
// origin.
func newCORSPolicy(origins []string) *corsPolicy {
	policy := &corsPolicy{origins: make(map[string]struct{})}
	for _, origin := range origins {
		origin = strings.TrimSpace(origin)
		switch origin {
		case "":
		case "*":
			policy.allowAll = true
		default:
			policy.origins[origin] = struct{}{}
		}
	}
	if len(policy.origins) == 0 {
		policy.allowAll = true
	}
	return policy
}

// bind records the router whose routes decide the allowed methods. It must
// run after every route is registered.
func (p *corsPolicy) bind(routes chi.Routes) error {
	seen := make(map[string]struct{})
	err := chi.Walk(routes, func(method, _ string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		seen[method] = struct{}{}
		return nil
	})
	if err != nil {
		return err
	}

	methods := make([]string, 0, len(seen))
	for method := range seen {
		methods = append(methods, method)
	}
	sort.Strings(methods)

	p.routes = routes
	p.methods = methods
	return nil
}

func (p *corsPolicy) allows(origin string) bool {
	if p.allowAll {
		return true
	}
	_, ok := p.origins[origin]
	return ok
}

// methodsFor lists the routed methods for path, plus OPTIONS when any match.
func (p *corsPolicy) methodsFor(path string) []string {
	if p.routes == nil {
		return nil
	}
	var matched []string
	for _, method := range p.methods {
		if p.routes.Match(chi.NewRouteContext(), method, path) {
			matched = append(matched, method)
		}
	}
	if len(matched) > 0 {
		matched = append(matched, http.MethodOptions)
	}
	return matched
}

func (p *corsPolicy) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := strings.TrimSpace(r.Header.Get("Origin"))
		if origin == "" || !p.allows(origin) {
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
			return
		}

		header := w.Header()
		header.Set("Access-Control-Allow-Origin", origin)
		header.Add("Vary", "Origin")

		if r.Method != http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		if methods := p.methodsFor(r.URL.Path); len(methods) > 0 {
			header.Set("Access-Control-Allow-Methods", strings.Join(methods, ","))
			header.Set("Access-Control-Allow-Headers", "Content-Type")
			header.Set("Access-Control-Max-Age", "300")
		}
		w.WriteHeader(http.StatusNoContent)
	})
}
