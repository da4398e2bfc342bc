package session

import (
	"regexp"
	"strings"
)

// NoWatchLink is the sentinel stored in watch_live_link when a talk has no stream.
const NoWatchLink = "Don't have"

var youTubeIDPattern = regexp.MustCompile(`(?:v=|youtu\.be/|youtube\.com/live/)([a-zA-Z0-9_-]{11})`)

// HasWatchLink reports whether the session carries a real watch link.
func (s Session) HasWatchLink() bool {
	link := strings.TrimSpace(s.WatchLiveLink)
	return link != "" && link != NoWatchLink
}

// YouTubeVideoID extracts the 11 character video id from a YouTube watch,
// short or live link.
func YouTubeVideoID(link string) (string, bool) {
	link = strings.TrimSpace(link)
	if link == "" || link == NoWatchLink {
		return "", false
	}
	m := youTubeIDPattern.FindStringSubmatch(link)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// TranscriptTarget returns the YouTube video whose captions should fill this
// session's transcript. Sessions that already have a transcript are skipped
// unless overwrite is set.
func (s Session) TranscriptTarget(overwrite bool) (string, bool) {
	if !s.HasWatchLink() {
		return "", false
	}
	videoID, ok := YouTubeVideoID(s.WatchLiveLink)
	if !ok {
		return "", false
	}
	if !overwrite && strings.TrimSpace(s.Transcript) != "" {
		return "", false
	}
	return videoID, true
}
