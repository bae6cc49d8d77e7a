package utils

import "net/http"

// Headers that carry the acting participant name. Older clients send Name.
const (
	UserHeader = "User"
	NameHeader = "Name"
)

// ActingName returns the participant a request acts as, or "" when absent.
func ActingName(r *http.Request) string {
	if name := r.Header.Get(UserHeader); name != "" {
		return name
	}
	return r.Header.Get(NameHeader)
}

// ViewerName is ActingName with a ?user= fallback for clients, such as
// browser EventSource and WebSocket, that cannot set headers.
func ViewerName(r *http.Request) string {
	if name := ActingName(r); name != "" {
		return name
	}
	return r.URL.Query().Get("user")
}
