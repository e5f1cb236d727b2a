package notion

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/blacktop/xpublish/internal/cms"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSchema = map[string]PropertySchema{
	"Name":           {Name: "Name", Type: PropTitle},
	"Tags":           {Name: "Tags", Type: PropMultiSelect},
	"Status":         {Name: "Status", Type: PropStatus},
	"Canonical URL":  {Name: "Canonical URL", Type: PropURL},
	"Published Date": {Name: "Published Date", Type: PropDate},
}

func TestMapProperties(t *testing.T) {
	now := time.Date(2025, 3, 9, 23, 0, 0, 0, time.UTC)
	post := cms.Post{
		Title:         "Hello",
		Content:       "body",
		Tags:          []string{"go", "GO", "a,b"},
		PublishStatus: cms.StatusPublic,
		CanonicalURL:  "https://example.com/hello",
	}

	props := MapProperties(testSchema, PropertyMapping{}, post, now)
	data, err := json.Marshal(props)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"Name": {"title": [{"type":"text","text":{"content":"Hello"}}]},
		"Tags": {"multi_select": [{"name":"go"},{"name":"a b"}]},
		"Status": {"status": {"name":"Published"}},
		"Canonical URL": {"url": "https://example.com/hello"},
		"Published Date": {"date": {"start":"2025-03-09"}}
	}`, string(data))
}

func TestMapPropertiesSchemaVariants(t *testing.T) {
	schema := map[string]PropertySchema{
		"Title":  {Type: PropTitle},
		"Tags":   {Type: PropRichText},
		"Status": {Type: PropSelect},
	}
	post := cms.Post{Title: "T", Content: "c", Tags: []string{"a", "b"}}

	props := MapProperties(schema, PropertyMapping{}, post, time.Now())

	assert.Contains(t, props, "Title", "title falls back to the title-typed property")
	assert.NotContains(t, props, "Name")
	assert.NotContains(t, props, "Published Date", "drafts carry no published date")
	assert.Equal(t, map[string]any{PropSelect: map[string]string{"name": "Draft"}}, props["Status"])
	assert.Equal(t, "a, b", PlainTextOf(props["Tags"].(map[string]any)[PropRichText].([]RichText)))
}

func TestStatusLabel(t *testing.T) {
	assert.Equal(t, "Published", StatusLabel(cms.StatusPublic))
	assert.Equal(t, "Unlisted", StatusLabel(cms.StatusUnlisted))
	assert.Equal(t, "Draft", StatusLabel(cms.StatusDraft))
}

func TestIsConfigured(t *testing.T) {
	assert.True(t, New(Config{Token: "secret_x"}).IsConfigured())
	assert.False(t, New(Config{Token: " ", DatabaseID: "db"}).IsConfigured())
}

func TestPublishRequiresDatabase(t *testing.T) {
	_, err := New(Config{Token: "secret_x"}).Publish(context.Background(), cms.Post{Title: "T", Content: "c"})
	assert.True(t, cms.HasCode(err, cms.CodeMissingDatabaseID))
}

func TestPublishAppendsOverflowBlocks(t *testing.T) {
	var created CreatePageRequest
	var appended []int

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret_x", r.Header.Get("Authorization"))
		assert.Equal(t, apiVersion, r.Header.Get("Notion-Version"))

		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/databases/db1":
			json.NewEncoder(w).Encode(Database{ID: "db1", Properties: testSchema})
		case r.Method == http.MethodPost && r.URL.Path == "/pages":
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&created))
			w.Write([]byte(`{"object":"page","id":"page-1","url":"https://www.notion.so/page-1","created_time":"2025-01-01T00:00:00.000Z"}`))
		case r.Method == http.MethodPatch && r.URL.Path == "/blocks/page-1/children":
			var body struct {
				Children []Block `json:"children"`
			}
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			appended = append(appended, len(body.Children))
			w.Write([]byte(`{"object":"list","results":[]}`))
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	var lines []string
	for i := range 250 {
		lines = append(lines, fmt.Sprintf("paragraph %d", i))
	}

	client := New(Config{Token: "secret_x", DatabaseID: "db1"}, WithBaseURL(srv.URL))
	res, err := client.Publish(context.Background(), cms.Post{
		Title:   "Long",
		Content: strings.Join(lines, "\n\n"),
	})
	require.NoError(t, err)

	assert.Equal(t, "page-1", res.PostID)
	assert.Equal(t, "https://www.notion.so/page-1", res.URL)
	assert.Equal(t, 250, res.Metadata["blockCount"])
	assert.Equal(t, "db1", created.Parent.DatabaseID)
	assert.Len(t, created.Children, maxChildren)
	assert.Equal(t, []int{100, 50}, appended)
}

func TestPublishAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"object":"error","status":404,"code":"object_not_found","message":"Could not find database"}`))
	}))
	defer srv.Close()

	_, err := New(Config{Token: "secret_x", DatabaseID: "missing"}, WithBaseURL(srv.URL)).
		Publish(context.Background(), cms.Post{Title: "T", Content: "c"})

	var cmsErr *cms.Error
	require.ErrorAs(t, err, &cmsErr)
	assert.Equal(t, cms.CodeAPIError, cmsErr.Code)
	assert.Equal(t, http.StatusNotFound, cmsErr.StatusCode)
	assert.Equal(t, "Could not find database", cmsErr.Message)
	assert.Equal(t, "object_not_found", cmsErr.Details["platform_code"])
}

func TestCreatePageRejectsTooManyChildren(t *testing.T) {
	_, err := New(Config{Token: "secret_x"}).CreatePage(context.Background(), CreatePageRequest{
		Children: make([]Block, maxChildren+1),
	})
	assert.True(t, cms.HasCode(err, cms.CodeValidation))
}

func TestGetPublications(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		w.Write([]byte(`{"results":[{"object":"database","id":"db1","url":"https://www.notion.so/db1","title":[{"type":"text","plain_text":"Blog"}]}]}`))
	}))
	defer srv.Close()

	pubs, err := New(Config{Token: "secret_x"}, WithBaseURL(srv.URL)).GetPublications(context.Background())
	require.NoError(t, err)
	require.Len(t, pubs, 1)
	assert.Equal(t, cms.Publication{ID: "db1", Name: "Blog", URL: "https://www.notion.so/db1"}, pubs[0])
}
