package game

import (
	"strings"

	"github.com/pkg/errors"
)

const (
	maxScreenshots = 2
	maxArtworks    = 2
)

// ImageURLs returns full-resolution URLs for the record's cover, first two
// screenshots and first two artworks, in that order. A descriptor without a
// URL fails the whole selection.
func ImageURLs(rec CleanRecord) ([]string, error) {
	var descriptors []Image
	if rec.Cover != nil {
		descriptors = append(descriptors, *rec.Cover)
	}
	descriptors = append(descriptors, firstImages(rec.Screenshots, maxScreenshots)...)
	descriptors = append(descriptors, firstImages(rec.Artworks, maxArtworks)...)

	urls := make([]string, 0, len(descriptors))
	for _, d := range descriptors {
		u, err := imageURL(d)
		if err != nil {
			return nil, errors.Wrapf(err, "image urls for %q", rec.Name)
		}
		urls = append(urls, u)
	}
	return urls, nil
}

func imageURL(img Image) (string, error) {
	u := strings.TrimSpace(img.URL)
	if u == "" {
		return "", errors.Wrapf(ErrMissingField, "image descriptor %+v has no url", img)
	}
	u = strings.TrimPrefix(u, "//")
	u = strings.ReplaceAll(u, "t_thumb", "t_original")
	if !strings.HasPrefix(u, "http") {
		u = "https://" + u
	}
	return u, nil
}

func firstImages(images []Image, n int) []Image {
	if len(images) > n {
		return images[:n]
	}
	return images
}
