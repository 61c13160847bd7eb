// Package player owns the playback-facing logic that needs no I/O: embed URL
// construction, next-episode resolution, and player event decoding.
package player

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"vetrina/models"
)

// Options are the optional iframe query parameters. Zero values are omitted
// from the URL entirely; no empty-string parameters are ever emitted.
type Options struct {
	Lang           string
	Autoplay       *bool
	StartAt        int
	PrimaryColor   string
	SecondaryColor string
}

// BuildURL maps a title to its embed iframe URL:
// movies {base}/movie/{id}, shows {base}/tv/{id}/{season}/{episode}.
// Pure and deterministic; validating ids is the caller's responsibility.
func BuildURL(base string, kind models.Kind, id int64, season, episode int, opts Options) string {
	base = strings.TrimRight(base, "/")

	var target string
	if kind == models.KindMovie {
		target = fmt.Sprintf("%s/movie/%d", base, id)
	} else {
		target = fmt.Sprintf("%s/tv/%d/%d/%d", base, id, season, episode)
	}

	q := url.Values{}
	if opts.Lang != "" {
		q.Set("lang", opts.Lang)
	}
	if opts.Autoplay != nil {
		q.Set("autoplay", strconv.FormatBool(*opts.Autoplay))
	}
	if opts.StartAt > 0 {
		q.Set("startAt", strconv.Itoa(opts.StartAt))
	}
	if opts.PrimaryColor != "" {
		q.Set("primaryColor", strings.TrimPrefix(opts.PrimaryColor, "#"))
	}
	if opts.SecondaryColor != "" {
		q.Set("secondaryColor", strings.TrimPrefix(opts.SecondaryColor, "#"))
	}
	if len(q) > 0 {
		target += "?" + q.Encode()
	}
	return target
}
