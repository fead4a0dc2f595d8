package mocks

import (
	"errors"
	"io"
	"net/http"
	"testing"
)

func TestHTTPTransport(t *testing.T) {
	t.Run("RoundTrip", func(t *testing.T) {
		expected := errors.New("mocked error")
		txp := &HTTPTransport{
			MockRoundTrip: func(req *http.Request) (*http.Response, error) {
				return nil, expected
			},
		}
		resp, err := txp.RoundTrip(&http.Request{})
		if !errors.Is(err, expected) {
			t.Fatal("not the error we expected", err)
		}
		if resp != nil {
			t.Fatal("expected nil response here")
		}
	})

	t.Run("CloseIdleConnections", func(t *testing.T) {
		var called bool
		txp := &HTTPTransport{
			MockCloseIdleConnections: func() {
				called = true
			},
		}
		txp.CloseIdleConnections()
		if !called {
			t.Fatal("not called")
		}
	})
}

func TestReadCloser(t *testing.T) {
	t.Run("Read", func(t *testing.T) {
		r := &ReadCloser{
			MockRead: func(b []byte) (int, error) {
				return 0, io.EOF
			},
		}
		count, err := r.Read(make([]byte, 4))
		if !errors.Is(err, io.EOF) || count != 0 {
			t.Fatal("unexpected result", count, err)
		}
	})

	t.Run("Close", func(t *testing.T) {
		expected := errors.New("mocked error")
		r := &ReadCloser{
			MockClose: func() error {
				return expected
			},
		}
		if err := r.Close(); !errors.Is(err, expected) {
			t.Fatal("not the error we expected", err)
		}
	})
}
