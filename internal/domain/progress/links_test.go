package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestYouTubeID(t *testing.T) {
	tests := []struct {
		name string
		link string
		want string
		ok   bool
	}{
		{"watch", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"watch with params", "https://www.youtube.com/watch?list=PL123&v=dQw4w9WgXcQ&t=42", "dQw4w9WgXcQ", true},
		{"short link", "https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"short link with query", "https://youtu.be/dQw4w9WgXcQ?t=10", "dQw4w9WgXcQ", true},
		{"embed", "https://www.youtube.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"shorts", "https://www.youtube.com/shorts/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"nocookie", "https://www.youtube-nocookie.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"no scheme", "youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"channel page", "https://www.youtube.com/@somechannel", "", false},
		{"truncated id", "https://youtu.be/short", "", false},
		{"not youtube", "https://vimeo.com/12345", "", false},
		{"empty", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := YouTubeID(tt.link)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPortfolioTypeOf(t *testing.T) {
	tests := []struct {
		link string
		want PortfolioType
		ok   bool
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", PortfolioYouTube, true},
		{"https://youtu.be/dQw4w9WgXcQ", PortfolioYouTube, true},
		{"https://www.youtube-nocookie.com/embed/dQw4w9WgXcQ", PortfolioYouTube, true},
		{"https://soundcloud.com/artist/track", PortfolioSoundCloud, true},
		{"https://snd.sc/abc123", PortfolioSoundCloud, true},
		{"HTTPS://SOUNDCLOUD.COM/X", PortfolioSoundCloud, true},
		{"https://spotify.com/track/1", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := PortfolioTypeOf(tt.link)
		assert.Equal(t, tt.ok, ok, tt.link)
		assert.Equal(t, tt.want, got, tt.link)
	}
}

func TestEscapeHTML(t *testing.T) {
	assert.Equal(t, "&lt;script&gt;alert(&#39;x&#39;)&lt;/script&gt;", EscapeHTML("<script>alert('x')</script>"))
	assert.Equal(t, "Tom &amp; Jerry", EscapeHTML("Tom & Jerry"))
	assert.Equal(t, "&quot;quoted&quot;", EscapeHTML(`"quoted"`))
	assert.Equal(t, "plain text", EscapeHTML("plain text"))
	assert.Equal(t, "", EscapeHTML(""))
}

func TestEmbedHTML(t *testing.T) {
	yt, err := NewPortfolioEntry("1", `My <b>Video</b>`, "https://youtube.com/watch?v=dQw4w9WgXcQ")
	require.NoError(t, err)
	embed := yt.EmbedHTML()
	assert.Contains(t, embed, "youtube.com/embed/dQw4w9WgXcQ")
	assert.Contains(t, embed, "My &lt;b&gt;Video&lt;/b&gt;")
	assert.NotContains(t, embed, "<b>")

	sc, err := NewPortfolioEntry("2", "Track", "https://soundcloud.com/artist/track")
	require.NoError(t, err)
	assert.Contains(t, sc.EmbedHTML(), "w.soundcloud.com/player")
}
