package youtube

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractID_Shapes(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"bare id", "dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"youtu.be", "https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"watch url", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"watch url no scheme", "youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"watch url extra query", "https://youtube.com/watch?v=dQw4w9WgXcQ&t=30s", "dQw4w9WgXcQ"},
		{"embed url", "https://www.youtube.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"shorts url", "https://www.youtube.com/shorts/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"v url", "https://www.youtube.com/v/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"music watch url", "https://music.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ExtractID(tc.in)
			assert.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestExtractID_Invalid(t *testing.T) {
	cases := []string{
		"",
		"not a url",
		"https://example.com/watch?v=dQw4w9WgXcQ",
		"https://music.youtube.com/playlist?list=abc",
		"https://youtube.com/watch?v=tooshort",
	}

	for _, in := range cases {
		_, err := ExtractID(in)
		assert.Error(t, err, "expected error for %q", in)
	}
}

func TestFallbackMetadata(t *testing.T) {
	meta := fallbackMetadata("dQw4w9WgXcQ")
	assert.Equal(t, "dQw4w9WgXcQ", meta.YoutubeId)
	assert.Equal(t, "Unknown Track", meta.Title)
	assert.Equal(t, "https://img.youtube.com/vi/dQw4w9WgXcQ/mqdefault.jpg", meta.Thumbnail)
}

func TestThumbnailURL_AlwaysDerived(t *testing.T) {
	assert.Equal(t, "https://img.youtube.com/vi/abc12345678/mqdefault.jpg", thumbnailURL("abc12345678"))
}
