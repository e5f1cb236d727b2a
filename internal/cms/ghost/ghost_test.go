package ghost

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/blacktop/xpublish/internal/cms"
	"github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = hex.EncodeToString([]byte("0123456789abcdef0123456789abcdef"))

func testKey() string { return "64f1a2b3c4:" + testSecret }

func TestIsConfigured(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want bool
	}{
		{name: "complete", cfg: Config{URL: "https://blog.example.com", AdminAPIKey: testKey()}, want: true},
		{name: "missing url", cfg: Config{AdminAPIKey: testKey()}, want: false},
		{name: "missing key", cfg: Config{URL: "https://blog.example.com"}, want: false},
		{name: "blank", cfg: Config{URL: "  ", AdminAPIKey: " "}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, New(tt.cfg).IsConfigured())
		})
	}
}

func TestGenerateToken(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	signed, err := GenerateToken(testKey(), now)
	require.NoError(t, err)

	parser := &jwt.Parser{SkipClaimsValidation: true}
	token, err := parser.Parse(signed, func(token *jwt.Token) (interface{}, error) {
		return hex.DecodeString(testSecret)
	})
	require.NoError(t, err)
	assert.True(t, token.Valid)
	assert.Equal(t, "64f1a2b3c4", token.Header["kid"])
	assert.Equal(t, "HS256", token.Header["alg"])

	claims := token.Claims.(jwt.MapClaims)
	iat := claims["iat"].(float64)
	exp := claims["exp"].(float64)
	assert.Equal(t, float64(300), exp-iat)
	assert.Equal(t, float64(now.Unix()), iat)
	assert.Equal(t, "/admin/", claims["aud"])
}

func TestGenerateTokenRejectsMalformedKey(t *testing.T) {
	for _, key := range []string{"", "nocolon", "id:", ":secret", "id:not-hex"} {
		_, err := GenerateToken(key, time.Now())
		require.Error(t, err, key)
		assert.True(t, cms.HasCode(err, cms.CodeInvalidAPIKey), key)
	}
}

func TestMapStatus(t *testing.T) {
	assert.Equal(t, "published", MapStatus(cms.StatusPublic))
	assert.Equal(t, "published", MapStatus(cms.StatusUnlisted))
	assert.Equal(t, "draft", MapStatus(cms.StatusDraft))
	assert.Equal(t, "draft", MapStatus(""))
}

func TestPublish(t *testing.T) {
	var got struct {
		Posts []Post `json:"posts"`
	}
	var authHeader, source, version string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/ghost/api/admin/posts/", r.URL.Path)
		authHeader = r.Header.Get("Authorization")
		source = r.URL.Query().Get("source")
		version = r.Header.Get("Accept-Version")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{
			"posts": []map[string]any{{
				"id":     "6560",
				"uuid":   "abc-123",
				"slug":   "hello",
				"status": "published",
				"url":    "https://blog.example.com/hello/",
			}},
		})
	}))
	defer srv.Close()

	client := New(Config{URL: srv.URL + "/", AdminAPIKey: testKey()})
	res, err := client.Publish(context.Background(), cms.Post{
		Title:         "Hello",
		Content:       "# Hi\n\n**bold**",
		Tags:          []string{"go", "Go", "cms"},
		PublishStatus: cms.StatusPublic,
		CanonicalURL:  "https://example.com/original",
	})
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, "6560", res.PostID)
	assert.Equal(t, "https://blog.example.com/hello/", res.URL)
	assert.True(t, strings.HasPrefix(authHeader, "Ghost "))
	assert.Equal(t, "html", source)
	assert.Equal(t, "v5.0", version)

	require.Len(t, got.Posts, 1)
	sent := got.Posts[0]
	assert.Equal(t, "published", sent.Status)
	assert.Equal(t, "<h1>Hi</h1>\n<p><strong>bold</strong></p>", sent.HTML)
	assert.Equal(t, []Tag{{Name: "go"}, {Name: "cms"}}, sent.Tags)
	assert.Equal(t, "https://example.com/original", sent.CanonicalURL)
}

func TestPublishAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"errors":[{"message":"Validation error","context":"Title is too long","type":"ValidationError"}]}`))
	}))
	defer srv.Close()

	_, err := New(Config{URL: srv.URL, AdminAPIKey: testKey()}).Publish(context.Background(), cms.Post{Title: "T", Content: "c"})
	require.Error(t, err)

	var cmsErr *cms.Error
	require.ErrorAs(t, err, &cmsErr)
	assert.Equal(t, cms.CodeAPIError, cmsErr.Code)
	assert.Equal(t, http.StatusUnprocessableEntity, cmsErr.StatusCode)
	assert.Equal(t, "Validation error: Title is too long", cmsErr.Message)
	assert.Equal(t, "ValidationError", cmsErr.Details["platform_code"])
}

func TestPublishNotConfigured(t *testing.T) {
	_, err := New(Config{}).Publish(context.Background(), cms.Post{Title: "T", Content: "c"})
	assert.True(t, cms.HasCode(err, cms.CodeNotConfigured))
}

func TestGetUserFromSite(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ghost/api/admin/site/", r.URL.Path)
		w.Write([]byte(`{"site":{"title":"My Blog","url":"https://blog.example.com/","icon":"https://blog.example.com/icon.png"}}`))
	}))
	defer srv.Close()

	user, err := New(Config{URL: srv.URL, AdminAPIKey: testKey()}).GetUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "blog.example.com", user.ID)
	assert.Equal(t, "My Blog", user.Name)
	assert.Equal(t, "https://blog.example.com/icon.png", user.ImageURL)
}
