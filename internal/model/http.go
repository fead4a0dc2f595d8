package model

//
// HTTP definitions
//

import "net/http"

// HTTPTransport is an [http.RoundTripper] that also knows how
// to close idle connections, like [*http.Transport].
type HTTPTransport interface {
	// RoundTrip performs the HTTP round trip.
	RoundTrip(req *http.Request) (*http.Response, error)

	// CloseIdleConnections closes idle connections.
	CloseIdleConnections()
}
