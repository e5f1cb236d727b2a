package social

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompose(t *testing.T) {
	tests := []struct {
		name  string
		title string
		link  string
		tags  []string
		limit int
		want  string
	}{
		{
			name:  "no limit",
			title: "Hello  World",
			link:  "https://e.com/p",
			tags:  []string{"go", "Machine Learning", "GO"},
			want:  "Hello World\n\n#go #MachineLearning",
		},
		{
			name:  "hashtags trimmed to fit",
			title: "Hello",
			link:  "https://e.com",
			tags:  []string{"alpha", "beta"},
			limit: 28,
			want:  "Hello\n\n#alpha",
		},
		{
			name:  "no tags",
			title: "Hello",
			want:  "Hello",
		},
		{
			name:  "tags only",
			tags:  []string{"!!", "news"},
			want:  "#news",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Compose(tt.title, tt.link, tt.tags, tt.limit))
		})
	}
}

func TestComposeLongTitle(t *testing.T) {
	link := "https://e.com"
	text := Compose(strings.Repeat("a", 300), link, []string{"go"}, LimitTwitter)

	assert.Equal(t, LimitTwitter-len(link)-2, utf8.RuneCountInString(text))
	assert.True(t, strings.HasSuffix(text, "…"))
	assert.NotContains(t, text, "#go")

	a := Announcement{Text: text, Link: link}
	assert.Equal(t, LimitTwitter, utf8.RuneCountInString(a.String()))
	assert.NoError(t, Validate("twitter", a, LimitTwitter))
}

func TestHashtag(t *testing.T) {
	assert.Equal(t, "#C", Hashtag("C++"))
	assert.Equal(t, "#étude", Hashtag("é tude"))
	assert.Equal(t, "#go_lang", Hashtag("go_lang"))
	assert.Empty(t, Hashtag("!!"))
}

func TestAnnouncementString(t *testing.T) {
	assert.Equal(t, "Hi\n\nhttps://e.com", Announcement{Text: "Hi", Link: "https://e.com"}.String())
	assert.Equal(t, "https://e.com", Announcement{Link: "https://e.com"}.String())
	assert.Equal(t, "Hi", Announcement{Text: "Hi"}.String())
}

func TestValidate(t *testing.T) {
	err := Validate("mastodon", Announcement{Text: "  "}, LimitMastodon)
	var verr ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "mastodon", verr.Provider)

	err = Validate("bluesky", Announcement{Text: strings.Repeat("x", 301)}, LimitBluesky)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "limit is 300")
}

func TestLimitFor(t *testing.T) {
	assert.Equal(t, 280, LimitFor("X"))
	assert.Equal(t, 300, LimitFor("bluesky"))
	assert.Equal(t, 500, LimitFor("Mastodon"))
	assert.Zero(t, LimitFor("myspace"))
}

func TestMissingEnvError(t *testing.T) {
	err := MissingEnvError{Provider: "twitter", Variables: []string{"A", "B"}}
	assert.Equal(t, "twitter credentials not configured (missing A, B)", err.Error())
}
