package shopify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/blacktop/xpublish/internal/cms"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsConfigured(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want bool
	}{
		{name: "complete", cfg: Config{ShopDomain: "shop.myshopify.com", AccessToken: "shpat_x"}, want: true},
		{name: "missing token", cfg: Config{ShopDomain: "shop.myshopify.com"}, want: false},
		{name: "missing domain", cfg: Config{AccessToken: "shpat_x"}, want: false},
		{name: "scheme only", cfg: Config{ShopDomain: "https://", AccessToken: "shpat_x"}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, New(tt.cfg).IsConfigured())
		})
	}
}

func TestPublishCreatesDefaultBlogOnce(t *testing.T) {
	var blogCreates int
	var sent struct {
		Article Article `json:"article"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "shpat_x", r.Header.Get("X-Shopify-Access-Token"))

		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/blogs.json":
			w.Write([]byte(`{"blogs":[]}`))
		case r.Method == http.MethodPost && r.URL.Path == "/blogs.json":
			blogCreates++
			var body struct {
				Blog Blog `json:"blog"`
			}
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "Blog", body.Blog.Title)
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"blog":{"id":241253187,"title":"Blog","handle":"blog"}}`))
		case r.Method == http.MethodPost && r.URL.Path == "/blogs/241253187/articles.json":
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&sent))
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"article":{"id":134645308,"blog_id":241253187,"title":"Hello World","handle":"hello-world","created_at":"2025-01-01T00:00:00-05:00"}}`))
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client := New(Config{ShopDomain: "https://shop.example.com/", AccessToken: "shpat_x"}, WithBaseURL(srv.URL))
	res, err := client.Publish(context.Background(), cms.Post{
		Title:         "Hello World",
		Content:       "**hi**",
		Tags:          []string{"news", "News", "go"},
		PublishStatus: cms.StatusUnlisted,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, blogCreates)
	assert.Equal(t, "134645308", res.PostID)
	assert.Equal(t, "https://shop.example.com/blogs/blog/hello-world", res.URL)

	assert.Equal(t, "<p><strong>hi</strong></p>", sent.Article.BodyHTML)
	assert.Equal(t, "news, go", sent.Article.Tags)
	require.NotNil(t, sent.Article.Published)
	assert.False(t, *sent.Article.Published, "only public posts are published")
}

func TestPublishUsesConfiguredBlog(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/blogs/77.json":
			w.Write([]byte(`{"blog":{"id":77,"title":"News","handle":"news"}}`))
		case "/blogs/77/articles.json":
			var body struct {
				Article Article `json:"article"`
			}
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.True(t, *body.Article.Published)
			w.Write([]byte(`{"article":{"id":1,"handle":"post"}}`))
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))
	defer srv.Close()

	client := New(Config{ShopDomain: "shop.example.com", AccessToken: "shpat_x", BlogID: "77"}, WithBaseURL(srv.URL))
	res, err := client.Publish(context.Background(), cms.Post{Title: "Post", Content: "c", PublishStatus: cms.StatusPublic})
	require.NoError(t, err)
	assert.Equal(t, "https://shop.example.com/blogs/news/post", res.URL)
}

func TestPublishBlogError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			w.Write([]byte(`{"blogs":[]}`))
			return
		}
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"errors":"[API] This action requires merchant approval for write_content scope."}`))
	}))
	defer srv.Close()

	_, err := New(Config{ShopDomain: "shop.example.com", AccessToken: "shpat_x"}, WithBaseURL(srv.URL)).
		Publish(context.Background(), cms.Post{Title: "T", Content: "c"})

	var cmsErr *cms.Error
	require.ErrorAs(t, err, &cmsErr)
	assert.Equal(t, cms.CodeBlogError, cmsErr.Code)
	assert.Equal(t, http.StatusForbidden, cmsErr.StatusCode)
	assert.Contains(t, cmsErr.Message, "requires merchant approval")
}

func TestDecodeError(t *testing.T) {
	msg, _ := decodeError(map[string]any{"errors": "Not Found"})
	assert.Equal(t, "Not Found", msg)

	msg, _ = decodeError(map[string]any{"errors": map[string]any{
		"title":     []any{"can't be blank"},
		"body_html": []any{"is too long"},
	}})
	assert.Equal(t, "body_html is too long; title can't be blank", msg)

	msg, _ = decodeError(map[string]any{})
	assert.Empty(t, msg)
}

func TestGetUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/shop.json", r.URL.Path)
		w.Write([]byte(`{"shop":{"id":548380009,"name":"John Smith Test Store","domain":"shop.apple.com","myshopify_domain":"jsmith.myshopify.com"}}`))
	}))
	defer srv.Close()

	user, err := New(Config{ShopDomain: "jsmith.myshopify.com", AccessToken: "shpat_x"}, WithBaseURL(srv.URL)).GetUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &cms.User{
		ID:       "548380009",
		Username: "jsmith.myshopify.com",
		Name:     "John Smith Test Store",
		URL:      "https://shop.apple.com",
	}, user)
}
