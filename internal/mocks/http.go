package mocks

import (
	"net/http"

	"github.com/qiudaomao/atlantis/internal/model"
)

// HTTPTransport mocks model.HTTPTransport.
type HTTPTransport struct {
	MockRoundTrip            func(req *http.Request) (*http.Response, error)
	MockCloseIdleConnections func()
}

var _ model.HTTPTransport = &HTTPTransport{}

// RoundTrip calls MockRoundTrip.
func (txp *HTTPTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return txp.MockRoundTrip(req)
}

// CloseIdleConnections calls MockCloseIdleConnections.
func (txp *HTTPTransport) CloseIdleConnections() {
	txp.MockCloseIdleConnections()
}

// ReadCloser allows mocking an io.ReadCloser, e.g., a response body.
type ReadCloser struct {
	MockRead  func(b []byte) (int, error)
	MockClose func() error
}

// Read calls MockRead.
func (r *ReadCloser) Read(b []byte) (int, error) {
	return r.MockRead(b)
}

// Close calls MockClose.
func (r *ReadCloser) Close() error {
	return r.MockClose()
}
