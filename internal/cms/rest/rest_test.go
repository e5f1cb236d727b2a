package rest

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/blacktop/xpublish/internal/cms"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(base string) *Client {
	return &Client{
		Platform: cms.Medium,
		BaseURL:  base,
		HTTP:     DefaultHTTPClient(),
		Header:   http.Header{"Accept": []string{"application/json"}, "X-Static": []string{"static"}},
		Authorize: func(req *http.Request) error {
			req.Header.Set("Authorization", "Bearer t")
			return nil
		},
		DecodeError: func(body map[string]any) (string, string) {
			first := FirstError(body, "errors")
			return StringField(first, "message"), StringField(first, "code")
		},
	}
}

func TestDoJSONRoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/things", r.URL.Path)
		assert.Equal(t, "1", r.URL.Query().Get("page"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer t", r.Header.Get("Authorization"))
		assert.Equal(t, "override", r.Header.Get("X-Static"))

		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"name":"x"}`, string(body))
		w.Header().Set("X-Trace", "abc")
		w.Write([]byte(`{"id":"1"}`))
	}))
	defer srv.Close()

	var out struct {
		ID string `json:"id"`
	}
	resp, err := newClient(srv.URL+"/v1/").Do(context.Background(), Request{
		Method: http.MethodPost,
		Path:   "/things",
		Query:  url.Values{"page": []string{"1"}},
		Body:   map[string]string{"name": "x"},
		Header: http.Header{"X-Static": []string{"override"}},
	}, &out)
	require.NoError(t, err)
	assert.Equal(t, "1", out.ID)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "abc", resp.Header.Get("X-Trace"))
}

func TestDoRawBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "text/plain", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "raw bytes", string(body))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	_, err := newClient(srv.URL).Do(context.Background(), Request{
		Method:      http.MethodPut,
		Path:        "upload",
		Body:        strings.NewReader("raw bytes"),
		ContentType: "text/plain",
	}, nil)
	require.NoError(t, err)
}

func TestDoErrors(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantCode    string
		wantMessage string
		wantPlatCd  string
	}{
		{
			name:        "platform message",
			status:      http.StatusBadRequest,
			body:        `{"errors":[{"message":"Title is required","code":6000}]}`,
			wantCode:    cms.CodeAPIError,
			wantMessage: "Title is required",
			wantPlatCd:  "6000",
		},
		{
			name:        "unauthorized",
			status:      http.StatusUnauthorized,
			body:        `{"errors":[{"message":"Token was invalid.","code":6003}]}`,
			wantCode:    cms.CodeInvalidAPIKey,
			wantMessage: "Token was invalid.",
			wantPlatCd:  "6003",
		},
		{
			name:        "non json body",
			status:      http.StatusBadGateway,
			body:        `<html>bad gateway</html>`,
			wantCode:    cms.CodeAPIError,
			wantMessage: "Medium API error: Bad Gateway",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := newClient(srv.URL).Get(context.Background(), "/me", nil, nil)
			var cmsErr *cms.Error
			require.ErrorAs(t, err, &cmsErr)
			assert.Equal(t, tt.wantCode, cmsErr.Code)
			assert.Equal(t, tt.status, cmsErr.StatusCode)
			assert.Equal(t, tt.wantMessage, cmsErr.Message)
			assert.Equal(t, cms.Medium, cmsErr.Platform)
			assert.Equal(t, tt.wantPlatCd, PlatformCode(err))
			assert.NotNil(t, ResponseBody(err))
		})
	}
}

func TestDoDecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":`))
	}))
	defer srv.Close()

	var out map[string]any
	_, err := newClient(srv.URL).Get(context.Background(), "/", nil, &out)
	assert.True(t, cms.HasCode(err, cms.CodeDecode))
}

func TestDoNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := srv.URL
	srv.Close()

	_, err := newClient(base).Get(context.Background(), "/", nil, nil)
	assert.True(t, cms.HasCode(err, cms.CodeNetwork))
}

func TestDoContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := newClient(srv.URL).Get(ctx, "/", nil, nil)
	assert.True(t, cms.HasCode(err, cms.CodeNetwork))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestAuthorizeFailure(t *testing.T) {
	c := newClient("http://127.0.0.1:0")
	c.Authorize = func(*http.Request) error { return cms.NewError(cms.Ghost, cms.CodeInvalidAPIKey, "bad key") }
	_, err := c.Get(context.Background(), "/", nil, nil)
	assert.True(t, cms.HasCode(err, cms.CodeInvalidAPIKey))
}

func TestStringField(t *testing.T) {
	body := map[string]any{"s": "x", "n": float64(42), "b": true}
	assert.Equal(t, "x", StringField(body, "s"))
	assert.Equal(t, "42", StringField(body, "n"))
	assert.Empty(t, StringField(body, "b"))
	assert.Empty(t, StringField(nil, "s"))
	assert.Nil(t, FirstError(body, "errors"))
}
