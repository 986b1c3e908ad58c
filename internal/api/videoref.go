package api

import (
	"net/url"
	"regexp"
	"strings"

	"vidlingo/internal/services"
)

var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// ParseVideoRef extracts the video id from a watch URL, a youtu.be link, a
// /shorts/ or /embed/ URL, or a bare 11-character id.
func ParseVideoRef(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", services.Wrap(services.ErrValidation, "intake", "parse video", "video reference is required", nil)
	}
	if videoIDPattern.MatchString(ref) {
		return ref, nil
	}
	if !strings.Contains(ref, "://") {
		ref = "https://" + ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "intake", "parse video", "malformed video url", err)
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	host = strings.TrimPrefix(host, "m.")
	var id string
	switch host {
	case "youtu.be":
		id = firstSegment(u.Path)
	case "youtube.com", "music.youtube.com":
		segments := strings.Split(strings.Trim(u.Path, "/"), "/")
		switch {
		case len(segments) >= 1 && segments[0] == "watch":
			id = u.Query().Get("v")
		case len(segments) >= 2 && (segments[0] == "shorts" || segments[0] == "embed" || segments[0] == "live"):
			id = segments[1]
		}
	default:
		return "", services.Wrap(services.ErrValidation, "intake", "parse video", "not a YouTube url: "+u.Hostname(), nil)
	}
	if !videoIDPattern.MatchString(id) {
		return "", services.Wrap(services.ErrValidation, "intake", "parse video", "no video id in url", nil)
	}
	return id, nil
}

func firstSegment(p string) string {
	p = strings.Trim(p, "/")
	if i := strings.IndexByte(p, '/'); i >= 0 {
		return p[:i]
	}
	return p
}
