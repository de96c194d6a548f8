package providers

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/llmbridge/types"
)

// 1x1 transparent PNG.
var pngBytes = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
	0x0a, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x63, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00, 0x00, 0x00, 0x00, 0x49,
	0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestImageLoader_InlineDataVerbatim(t *testing.T) {
	loader := NewImageLoader(nil)
	encoded := base64.StdEncoding.EncodeToString(pngBytes)

	got, err := loader.Load(context.Background(), types.Image{Base64Data: encoded})
	require.NoError(t, err)
	assert.Equal(t, encoded, got.Base64Data)
	assert.Equal(t, "image/png", got.MimeType)
	assert.Equal(t, "data:image/png;base64,"+encoded, got.DataURL())
}

func TestImageLoader_FetchesHTTP(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.png" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write(pngBytes)
	}))
	defer server.Close()

	loader := NewImageLoader(server.Client())

	got, err := loader.Load(context.Background(), types.Image{URL: mustURL(t, server.URL+"/cat.png")})
	require.NoError(t, err)
	assert.Equal(t, base64.StdEncoding.EncodeToString(pngBytes), got.Base64Data)
	assert.Equal(t, "image/png", got.MimeType)

	_, err = loader.Load(context.Background(), types.Image{URL: mustURL(t, server.URL+"/missing.png")})
	require.Error(t, err)
	assert.Equal(t, types.ErrUpstreamError, types.GetErrorCode(err))
}

func TestImageLoader_ReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dot.png")
	require.NoError(t, os.WriteFile(path, pngBytes, 0o600))

	got, err := NewImageLoader(nil).Load(context.Background(), types.Image{URL: &url.URL{Scheme: "file", Path: path}})
	require.NoError(t, err)
	assert.Equal(t, base64.StdEncoding.EncodeToString(pngBytes), got.Base64Data)
}

func TestImageLoader_RejectsUnknownScheme(t *testing.T) {
	_, err := NewImageLoader(nil).Load(context.Background(), types.Image{URL: mustURL(t, "ftp://example.com/a.png")})
	assert.True(t, types.IsContractViolation(err))

	_, err = NewImageLoader(nil).Load(context.Background(), types.Image{})
	assert.True(t, types.IsContractViolation(err))
}

func TestCodec_MarshalHonoursEscapeHTML(t *testing.T) {
	in := map[string]string{"q": "<b>&</b>"}

	raw, err := DefaultCodec().Marshal(in)
	require.NoError(t, err)
	assert.Equal(t, `{"q":"<b>&</b>"}`, string(raw))

	escaped, err := (&Codec{EscapeHTML: true}).Marshal(in)
	require.NoError(t, err)
	assert.Equal(t, `{"q":"\u003cb\u003e\u0026\u003c/b\u003e"}`, string(escaped))
}
