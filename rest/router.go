package rest

import "net/http"

// Router is what the Server Binder requires from an HTTP router: the
// ability to register a handler for a method+pattern. *http.ServeMux
// satisfies this directly (Go route patterns already support "METHOD
// /path/{name}" wildcards); [NewServer] takes the Router from its caller.
// The HTTP router and transport are themselves external collaborators
// the binder does not implement.
type Router interface {
	Handle(pattern string, handler http.Handler)
}
