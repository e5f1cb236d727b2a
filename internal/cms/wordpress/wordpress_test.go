package wordpress

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/blacktop/xpublish/internal/cms"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsConfigured(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want bool
	}{
		{name: "basic", cfg: Config{URL: "https://x.com", Username: "u", Password: "p"}, want: true},
		{name: "token", cfg: Config{URL: "https://x.com", AccessToken: "tok"}, want: true},
		{name: "missing url", cfg: Config{Username: "u", Password: "p"}, want: false},
		{name: "username only", cfg: Config{URL: "https://x.com", Username: "u"}, want: false},
		{name: "nothing", cfg: Config{}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, New(tt.cfg).IsConfigured())
		})
	}
}

func TestMapStatus(t *testing.T) {
	tests := map[cms.Status]string{
		cms.StatusPublic:   "publish",
		cms.StatusUnlisted: "private",
		cms.StatusDraft:    "draft",
		"":                 "draft",
	}
	for in, want := range tests {
		t.Run(string(in), func(t *testing.T) {
			assert.Equal(t, want, MapStatus(in))
		})
	}
}

func TestPublishResolvesUniqueTags(t *testing.T) {
	wantAuth := "Basic " + base64.StdEncoding.EncodeToString([]byte("u:p"))
	var tagCreates []string
	var sent PostRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, wantAuth, r.Header.Get("Authorization"))

		switch r.Method + " " + r.URL.Path {
		case "GET /wp-json/wp/v2/tags":
			switch r.URL.Query().Get("search") {
			case "a":
				w.Write([]byte(`[{"id":5,"name":"alpha"}]`))
			case "b":
				w.Write([]byte(`[{"id":12,"name":"B"}]`))
			default:
				t.Errorf("unexpected tag search %q", r.URL.Query().Get("search"))
			}
		case "POST /wp-json/wp/v2/tags":
			var tag Tag
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&tag))
			tagCreates = append(tagCreates, tag.Name)
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"id":11,"name":"a"}`))
		case "POST /wp-json/wp/v2/posts":
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&sent))
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"id":99,"status":"publish","slug":"hello","link":"https://x.com/hello/"}`))
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client := New(Config{URL: srv.URL, Username: "u", Password: "p"})
	res, err := client.Publish(context.Background(), cms.Post{
		Title:         "Hello",
		Content:       "# Hi",
		Tags:          []string{"a", "a", "b"},
		PublishStatus: cms.StatusPublic,
	})
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, "99", res.PostID)
	assert.Equal(t, "https://x.com/hello/", res.URL)
	assert.Equal(t, []string{"a"}, tagCreates)
	assert.Equal(t, []int64{11, 12}, sent.Tags)
	assert.Equal(t, "publish", sent.Status)
	assert.Equal(t, "<h1>Hi</h1>", sent.Content)
}

func TestGetOrCreateTagTermExists(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			w.Write([]byte(`[]`))
			return
		}
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":"term_exists","message":"A term with the name provided already exists.","data":{"status":400,"term_id":42}}`))
	}))
	defer srv.Close()

	tag, err := New(Config{URL: srv.URL, AccessToken: "tok"}).GetOrCreateTag(context.Background(), "go")
	require.NoError(t, err)
	assert.Equal(t, int64(42), tag.ID)
	assert.Equal(t, "go", tag.Name)
}

func TestGetOrCreateTagMatchesEscapedNames(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.Write([]byte(`[{"id":3,"name":"R&amp;D"}]`))
	}))
	defer srv.Close()

	tag, err := New(Config{URL: srv.URL, AccessToken: "tok"}).GetOrCreateTag(context.Background(), "r&d")
	require.NoError(t, err)
	assert.Equal(t, int64(3), tag.ID)
}

func TestListPostsPagination(t *testing.T) {
	tests := []struct {
		name      string
		headers   map[string]string
		wantTotal int
		wantPages int
	}{
		{name: "headers", headers: map[string]string{"X-WP-Total": "42", "X-WP-TotalPages": "5"}, wantTotal: 42, wantPages: 5},
		{name: "absent", wantTotal: 2, wantPages: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "2", r.URL.Query().Get("page"))
				for k, v := range tt.headers {
					w.Header().Set(k, v)
				}
				w.Write([]byte(`[{"id":1},{"id":2}]`))
			}))
			defer srv.Close()

			res, err := New(Config{URL: srv.URL, AccessToken: "tok"}).ListPosts(context.Background(), ListOptions{Page: 2})
			require.NoError(t, err)
			assert.Len(t, res.Items, 2)
			assert.Equal(t, tt.wantTotal, res.Total)
			assert.Equal(t, tt.wantPages, res.TotalPages)
		})
	}
}

func TestUploadMedia(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/wp-json/wp/v2/media", r.URL.Path)
		assert.Equal(t, "image/png", r.Header.Get("Content-Type"))
		assert.Equal(t, `attachment; filename=cover.png`, r.Header.Get("Content-Disposition"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":7,"source_url":"https://x.com/cover.png","mime_type":"image/png"}`))
	}))
	defer srv.Close()

	media, err := New(Config{URL: srv.URL, AccessToken: "tok"}).
		UploadMedia(context.Background(), "cover.png", "image/png", strings.NewReader("png"))
	require.NoError(t, err)
	assert.Equal(t, int64(7), media.ID)
	assert.Equal(t, "https://x.com/cover.png", media.SourceURL)
}

func TestPublishInvalidCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"code":"rest_cannot_create","message":"Sorry, you are not allowed to create posts as this user.","data":{"status":401}}`))
	}))
	defer srv.Close()

	_, err := New(Config{URL: srv.URL, Username: "u", Password: "bad"}).
		Publish(context.Background(), cms.Post{Title: "T", Content: "c"})

	var cmsErr *cms.Error
	require.ErrorAs(t, err, &cmsErr)
	assert.Equal(t, cms.CodeInvalidAPIKey, cmsErr.Code)
	assert.Equal(t, "rest_cannot_create", cmsErr.Details["platform_code"])
}

func TestAuthorizationURL(t *testing.T) {
	cfg := OAuthConfig{ClientID: "123", RedirectURL: "https://app.example.com/callback", Scopes: []string{"global"}}

	raw, state, err := AuthorizationURL(cfg, "")
	require.NoError(t, err)
	_, err = uuid.Parse(state)
	assert.NoError(t, err, "generated state is a UUID")

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "public-api.wordpress.com", u.Host)
	assert.Equal(t, "/oauth2/authorize", u.Path)
	assert.Equal(t, "123", u.Query().Get("client_id"))
	assert.Equal(t, "code", u.Query().Get("response_type"))
	assert.Equal(t, state, u.Query().Get("state"))

	_, kept, err := AuthorizationURL(cfg, "fixed")
	require.NoError(t, err)
	assert.Equal(t, "fixed", kept)

	_, _, err = AuthorizationURL(OAuthConfig{}, "")
	assert.True(t, cms.HasCode(err, cms.CodeNotConfigured))
}

func TestExchangeCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/oauth2/token", r.URL.Path)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "the-code", r.PostForm.Get("code"))
		assert.Equal(t, "123", r.PostForm.Get("client_id"))
		assert.Equal(t, "shh", r.PostForm.Get("client_secret"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"tok","token_type":"bearer","blog_id":"555","blog_url":"https://me.wordpress.com","scope":""}`))
	}))
	defer srv.Close()

	tok, err := ExchangeCode(context.Background(), OAuthConfig{
		ClientID:     "123",
		ClientSecret: "shh",
		RedirectURL:  "https://app.example.com/callback",
		BaseURL:      srv.URL + "/oauth2",
	}, "the-code")
	require.NoError(t, err)
	assert.Equal(t, "tok", tok.AccessToken)
	assert.Equal(t, "555", tok.BlogID)
	assert.Equal(t, "https://me.wordpress.com", tok.BlogURL)
}
