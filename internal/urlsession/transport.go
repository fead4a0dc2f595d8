package urlsession

import (
	oohttp "github.com/ooni/oohttp"
	"github.com/qiudaomao/atlantis/internal/model"
)

// NewHTTPTransport creates the default transport used by sessions.
//
// The transport is based on github.com/ooni/oohttp, so that it works
// with any TLS library, and honours the proxy configured in the environment.
func NewHTTPTransport() model.HTTPTransport {
	txp := oohttp.DefaultTransport.(*oohttp.Transport).Clone()

	// Required to enable using HTTP/2 with a custom dialer.
	txp.ForceAttemptHTTP2 = true

	return &oohttp.StdlibTransport{Transport: txp}
}
