package providers

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/BaSui01/llmbridge/types"
)

// maxImageBytes caps images fetched over HTTP or read from disk.
const maxImageBytes = 20 << 20

// ImageLoader turns an image source into base64 data. It owns its HTTP
// client; the loader never shares a global one.
type ImageLoader struct {
	client *http.Client
}

// NewImageLoader creates a loader. A nil client uses one with DefaultReadTimeout.
func NewImageLoader(client *http.Client) *ImageLoader {
	if client == nil {
		client = &http.Client{Timeout: DefaultReadTimeout}
	}
	return &ImageLoader{client: client}
}

// LoadedImage is base64 data plus its media type.
type LoadedImage struct {
	Base64Data string
	MimeType   string
}

// DataURL renders the image as a data: URI.
func (l LoadedImage) DataURL() string {
	return "data:" + l.MimeType + ";base64," + l.Base64Data
}

// Load returns the image as base64. Inline data is returned verbatim,
// http and https URIs are fetched, file URIs are read from disk, and any
// other scheme is a contract error.
func (l *ImageLoader) Load(ctx context.Context, img types.Image) (LoadedImage, error) {
	if err := img.ValidateSource(); err != nil {
		return LoadedImage{}, err
	}
	if img.Base64Data != "" {
		mime := img.MimeType
		if mime == "" {
			mime = sniffBase64(img.Base64Data)
		}
		return LoadedImage{Base64Data: img.Base64Data, MimeType: mime}, nil
	}

	var (
		data []byte
		err  error
	)
	switch strings.ToLower(img.URL.Scheme) {
	case "http", "https":
		data, err = l.fetch(ctx, img.URL.String())
	case "file":
		data, err = readFile(img.URL.Path)
	default:
		return LoadedImage{}, types.NewContractError("unsupported image url scheme %q", img.URL.Scheme)
	}
	if err != nil {
		return LoadedImage{}, err
	}

	mime := img.MimeType
	if mime == "" {
		mime = http.DetectContentType(data)
	}
	return LoadedImage{Base64Data: base64.StdEncoding.EncodeToString(data), MimeType: mime}, nil
}

func (l *ImageLoader) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create image request: %w", err)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, types.NewError(types.ErrTransport, "failed to fetch image "+rawURL).WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, types.NewError(types.ErrUpstreamError,
			fmt.Sprintf("failed to fetch image %s: http %d", rawURL, resp.StatusCode)).
			WithHTTPStatus(resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, types.NewError(types.ErrTransport, "failed to read image "+rawURL).WithCause(err)
	}
	if len(data) > maxImageBytes {
		return nil, types.NewContractError("image %s exceeds %d bytes", rawURL, maxImageBytes)
	}
	return data, nil
}

func readFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image file: %w", err)
	}
	if info.Size() > maxImageBytes {
		return nil, types.NewContractError("image file %s exceeds %d bytes", path, maxImageBytes)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image file: %w", err)
	}
	return data, nil
}

// sniffBase64 detects the media type from the first decoded bytes.
func sniffBase64(data string) string {
	head := data
	if len(head) > 700 {
		head = head[:700]
	}
	head = head[:len(head)-len(head)%4]
	decoded, err := base64.StdEncoding.DecodeString(head)
	if err != nil || len(decoded) == 0 {
		return "application/octet-stream"
	}
	return http.DetectContentType(decoded)
}
