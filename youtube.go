package folio

import "regexp"

// youTubeURL matches watch, embed, /v/, shorts, live and youtu.be links.
// Scheme and www. are optional; the capture is the 11-character video id.
var youTubeURL = regexp.MustCompile(
	`(?:https?://)?(?:www\.)?` +
		`(?:youtube\.com/(?:watch\?v=|embed/|v/|shorts/|live/)|youtu\.be/)` +
		`([^&=%? \n]{11})`)

// YouTubeVideoID extracts the video id from a pasted link, or "" if the link
// is not a recognised YouTube URL.
func YouTubeVideoID(link string) string {
	if link == "" {
		return ""
	}
	m := youTubeURL.FindStringSubmatch(link)
	if m == nil {
		return ""
	}
	return m[1]
}

// YouTubeThumb returns the hqdefault thumbnail URL for a YouTube link, or ""
// when the link has no recognisable video id. hqdefault exists for every
// video, unlike maxresdefault.
func YouTubeThumb(link string) string {
	id := YouTubeVideoID(link)
	if id == "" {
		return ""
	}
	return "https://img.youtube.com/vi/" + id + "/hqdefault.jpg"
}
