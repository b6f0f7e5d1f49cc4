package httpx

import (
	"net/http"
	"net/http/httptest"
)

// TestServer is an httptest.Server on a loopback port.
type TestServer struct{ *httptest.Server }

// NewTestServer serves h, typically an *App or Server.Handler().
func NewTestServer(h http.Handler) *TestServer {
	return &TestServer{httptest.NewServer(h)}
}

func (ts *TestServer) BaseURL() string { return ts.URL }
