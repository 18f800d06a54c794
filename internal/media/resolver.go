package media

import (
	"fmt"
	"net/url"
	"strings"
)

// DefaultCDNBaseURL is the static host the platform serves images from.
const DefaultCDNBaseURL = "https://static.inkhosted.com"

// Resolver turns hosted-image references into display URLs.
type Resolver interface {
	ResolveImageURL(ref string) (string, error)
}

// URLResolver resolves references of the form
// image://v1/<fileID>/<width>x<height>/<fileName> against a CDN base URL.
// Resolution is pure string work; no network calls are made.
type URLResolver struct {
	baseURL string
}

// NewURLResolver creates a resolver for the given CDN base URL.
// An empty base URL falls back to the platform default.
func NewURLResolver(baseURL string) *URLResolver {
	if baseURL == "" {
		baseURL = DefaultCDNBaseURL
	}
	return &URLResolver{baseURL: strings.TrimRight(baseURL, "/")}
}

// ResolveImageURL converts a hosted-image reference to a display URL.
// Already-absolute http(s) URLs pass through unchanged.
func (r *URLResolver) ResolveImageURL(ref string) (string, error) {
	if ref == "" {
		return "", fmt.Errorf("empty image reference")
	}

	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref, nil
	}

	const scheme = "image://v1/"
	if !strings.HasPrefix(ref, scheme) {
		return "", fmt.Errorf("unsupported image reference %q", ref)
	}

	rest := strings.TrimPrefix(ref, scheme)
	parts := strings.SplitN(rest, "/", 3)
	if len(parts) < 2 || parts[0] == "" {
		return "", fmt.Errorf("malformed image reference %q", ref)
	}

	fileID := parts[0]
	dims := parts[1]
	if !validDimensions(dims) {
		return "", fmt.Errorf("malformed image dimensions in %q", ref)
	}

	fileName := "image.jpg"
	if len(parts) == 3 && parts[2] != "" {
		fileName = parts[2]
	}

	return fmt.Sprintf("%s/media/%s/v1/fit/w_%s/%s",
		r.baseURL, fileID, strings.Replace(dims, "x", ",h_", 1), url.PathEscape(fileName)), nil
}

func validDimensions(dims string) bool {
	w, h, ok := strings.Cut(dims, "x")
	if !ok || w == "" || h == "" {
		return false
	}
	for _, part := range []string{w, h} {
		for _, c := range part {
			if c < '0' || c > '9' {
				return false
			}
		}
	}
	return true
}
