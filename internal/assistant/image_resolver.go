package assistant

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/prontocasa/assistant/pkg/logging"
)

// maxImageBytes caps how much of an attached photo is inlined for the model.
const maxImageBytes = 8 << 20

// ImageResolver fetches attached image references and inlines them as model
// parts. A reference that cannot be fetched or decoded is dropped from the
// turn; the turn proceeds without it.
type ImageResolver struct {
	client *http.Client
	logger *logging.Logger
}

// NewImageResolver builds a resolver with a bounded fetch timeout.
func NewImageResolver(logger *logging.Logger) *ImageResolver {
	if logger == nil {
		logger = logging.Default()
	}
	return &ImageResolver{
		client: &http.Client{Timeout: 10 * time.Second},
		logger: logger.WithComponent("image_resolver"),
	}
}

// Resolve fetches each URL and returns the parts that succeeded.
func (r *ImageResolver) Resolve(ctx context.Context, urls []string) []ImagePart {
	var parts []ImagePart
	for _, url := range urls {
		part, err := r.fetch(ctx, url)
		if err != nil {
			r.logger.Warn("dropping unresolvable image", "url", url, "error", err)
			continue
		}
		parts = append(parts, part)
	}
	return parts
}

func (r *ImageResolver) fetch(ctx context.Context, url string) (ImagePart, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return ImagePart{}, fmt.Errorf("assistant: build image request: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return ImagePart{}, fmt.Errorf("assistant: fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ImagePart{}, fmt.Errorf("assistant: fetch image: status %d", resp.StatusCode)
	}

	mime := resp.Header.Get("Content-Type")
	if idx := strings.Index(mime, ";"); idx >= 0 {
		mime = mime[:idx]
	}
	mime = strings.TrimSpace(mime)
	if !strings.HasPrefix(mime, "image/") {
		return ImagePart{}, fmt.Errorf("assistant: not an image: %q", mime)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return ImagePart{}, fmt.Errorf("assistant: read image body: %w", err)
	}
	if len(data) > maxImageBytes {
		return ImagePart{}, fmt.Errorf("assistant: image exceeds %d bytes", maxImageBytes)
	}
	if len(data) == 0 {
		return ImagePart{}, fmt.Errorf("assistant: empty image body")
	}

	return ImagePart{MIMEType: mime, Data: data}, nil
}
