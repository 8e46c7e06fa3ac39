package request

import (
	"net/http"

	"ytmp3d/internal/errs"
	"ytmp3d/pkg/urls"
)

// Convert carries the query parameters of a conversion request.
type Convert struct {
	URL string
}

// ParseConvert extracts and validates the url query parameter.
func ParseConvert(r *http.Request) (Convert, error) {
	c := Convert{URL: urls.Normalize(r.URL.Query().Get("url"))}

	return c, c.Validate()
}

func (c Convert) Validate() error {
	if c.URL == "" {
		return errs.ErrMissingURL
	}

	if !urls.IsYouTube(c.URL) {
		return errs.ErrUnsupportedURL
	}

	return nil
}
