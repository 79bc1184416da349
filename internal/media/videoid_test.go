package media

import (
	"errors"
	"testing"

	"vidqa/internal/util"

	"github.com/stretchr/testify/require"
)

func TestParseVideoID(t *testing.T) {
	cases := map[string]string{
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ":              "dQw4w9WgXcQ",
		"https://youtube.com/watch?v=dQw4w9WgXcQ&list=PL123&t=42s": "dQw4w9WgXcQ",
		"http://m.youtube.com/watch?feature=share&v=dQw4w9WgXcQ":   "dQw4w9WgXcQ",
		"https://youtu.be/dQw4w9WgXcQ?si=abc":                      "dQw4w9WgXcQ",
		"youtu.be/dQw4w9WgXcQ":                                     "dQw4w9WgXcQ",
		"https://www.youtube.com/shorts/dQw4w9WgXcQ":               "dQw4w9WgXcQ",
		"https://www.youtube.com/embed/dQw4w9WgXcQ":                "dQw4w9WgXcQ",
		"https://www.youtube.com/live/dQw4w9WgXcQ?feature=share":   "dQw4w9WgXcQ",
		"  dQw4w9WgXcQ ":                                           "dQw4w9WgXcQ",
	}
	for in, want := range cases {
		got, err := ParseVideoID(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}
}

func TestParseVideoIDRejects(t *testing.T) {
	for _, in := range []string{
		"",
		"not a url",
		"https://vimeo.com/123456789",
		"https://www.youtube.com/watch?v=short",
		"https://www.youtube.com/channel/UC123",
		"https://evil.example/watch?v=dQw4w9WgXcQ",
	} {
		_, err := ParseVideoID(in)
		require.Error(t, err, in)
		require.True(t, errors.Is(err, util.ErrInvalidVideoURL), in)
	}
}

func TestCanonicalURL(t *testing.T) {
	require.Equal(t, "https://www.youtube.com/watch?v=dQw4w9WgXcQ", CanonicalURL("dQw4w9WgXcQ"))
}
