package openai

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

// stubServer wraps an httptest server, counting calls and keeping request bodies.
type stubServer struct {
	*httptest.Server
	calls  atomic.Int32
	bodies chan []byte
}

func newStubServer(t *testing.T, handler func(w http.ResponseWriter, r *http.Request, body []byte)) *stubServer {
	t.Helper()
	s := &stubServer{bodies: make(chan []byte, 64)}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.calls.Add(1)
		body, _ := io.ReadAll(r.Body)
		select {
		case s.bodies <- body:
		default:
		}
		handler(w, r, body)
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *stubServer) client(t *testing.T) *Client {
	t.Helper()
	c, err := NewClient(Config{BaseURL: s.URL, APIKey: "sk-test"})
	require.NoError(t, err)
	return c
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}
