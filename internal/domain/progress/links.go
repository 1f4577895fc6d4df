package progress

import (
	"regexp"
	"strings"
)

// ══════════════════════════════════════════════════════════════════════════════
// LINK CLASSIFICATION
// ══════════════════════════════════════════════════════════════════════════════

// youtubeIDPatterns cover the accepted YouTube URL shapes. Each pattern
// captures the 11-character video id.
var youtubeIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:youtube\.com|youtube-nocookie\.com)/watch\?(?:[^#]*&)?v=([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`youtu\.be/([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`(?:youtube\.com|youtube-nocookie\.com)/embed/([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`(?:youtube\.com|youtube-nocookie\.com)/shorts/([A-Za-z0-9_-]{11})`),
}

// YouTubeID extracts the 11-character video id from a YouTube link.
// Supported shapes: watch?v=, youtu.be/, /embed/, /shorts/, including the
// youtube-nocookie.com host. Returns false when no id can be extracted.
func YouTubeID(link string) (string, bool) {
	for _, re := range youtubeIDPatterns {
		if m := re.FindStringSubmatch(link); m != nil {
			return m[1], true
		}
	}
	return "", false
}

// PortfolioTypeOf classifies a link as YouTube or SoundCloud by host
// substring. Returns false for anything else.
func PortfolioTypeOf(link string) (PortfolioType, bool) {
	lower := strings.ToLower(link)
	switch {
	case strings.Contains(lower, "soundcloud.com"), strings.Contains(lower, "snd.sc"):
		return PortfolioSoundCloud, true
	case strings.Contains(lower, "youtube.com"),
		strings.Contains(lower, "youtu.be"),
		strings.Contains(lower, "youtube-nocookie.com"):
		return PortfolioYouTube, true
	default:
		return "", false
	}
}

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

// EscapeHTML neutralizes markup characters in user-supplied text before it
// reaches any rendered surface.
func EscapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}
