// Package route defines the navigable surface and the guard that gates
// it on authentication state.
package route

import "strings"

// Route is one entry of the static route table.
type Route struct {
	// Path is the route's path, e.g. "/products".
	Path string
	// Name is a short identifier for display and logging.
	Name string
	// RequiresAuth marks routes only an authenticated session may enter.
	RequiresAuth bool
}

// Well-known paths.
const (
	PathHome     = "/"
	PathProducts = "/products"
	PathCart     = "/cart"
	PathLogin    = "/login"
	PathRegister = "/register"
)

// NotFound is the catch-all route for unknown paths.
var NotFound = Route{Path: "", Name: "not-found"}

// table is the static route surface. Unknown paths resolve to NotFound,
// which is public.
var table = []Route{
	{Path: PathHome, Name: "home"},
	{Path: PathProducts, Name: "products", RequiresAuth: true},
	{Path: PathCart, Name: "cart", RequiresAuth: true},
	{Path: PathLogin, Name: "login"},
	{Path: PathRegister, Name: "register"},
}

// Resolve maps a path (query string ignored) to its route. Unknown
// paths resolve to NotFound.
func Resolve(path string) Route {
	path = normalize(path)
	for _, r := range table {
		if r.Path == path {
			return r
		}
	}
	return NotFound
}

// Routes returns a copy of the route table.
func Routes() []Route {
	routes := make([]Route, len(table))
	copy(routes, table)
	return routes
}

// normalize strips the query string and any trailing slash (except for
// the root path).
func normalize(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	return path
}
