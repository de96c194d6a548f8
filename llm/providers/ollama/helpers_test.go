package ollama

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

type stubServer struct {
	*httptest.Server
	calls atomic.Int32
}

func newStubServer(t *testing.T, handler func(w http.ResponseWriter, r *http.Request, body []byte)) *stubServer {
	t.Helper()
	s := &stubServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.calls.Add(1)
		body, _ := io.ReadAll(r.Body)
		handler(w, r, body)
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *stubServer) client(t *testing.T) *Client {
	t.Helper()
	c, err := NewClient(Config{BaseURL: s.URL})
	require.NoError(t, err)
	return c
}
