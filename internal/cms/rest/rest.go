// Package rest is the JSON-over-HTTP transport shared by the CMS adapters.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/blacktop/xpublish/internal/cms"
	"github.com/blacktop/xpublish/internal/logutil"
	"github.com/hashicorp/go-cleanhttp"
)

// DefaultTimeout bounds every request made with the default HTTP client.
const DefaultTimeout = 30 * time.Second

// DefaultHTTPClient returns a pooled client with sane transport settings.
func DefaultHTTPClient() *http.Client {
	client := cleanhttp.DefaultPooledClient()
	client.Timeout = DefaultTimeout
	return client
}

// Authorizer decorates an outgoing request with credentials. It runs once per
// request so short-lived tokens can be minted on demand.
type Authorizer func(req *http.Request) error

// ErrorDecoder extracts the platform's own message and code from a non-2xx
// response body. It returns empty strings when the body carries neither.
type ErrorDecoder func(body map[string]any) (message, code string)

// Client performs authenticated JSON requests against one platform API.
type Client struct {
	Platform    cms.Platform
	BaseURL     string
	HTTP        *http.Client
	Header      http.Header
	Authorize   Authorizer
	DecodeError ErrorDecoder
}

// Request describes one API call.
type Request struct {
	Method string
	Path   string
	Query  url.Values

	// Body is JSON encoded unless it is an io.Reader, in which case it is
	// sent as is with ContentType.
	Body        any
	ContentType string
	Header      http.Header
}

// Response carries the parts of an HTTP response callers may need besides
// the decoded body.
type Response struct {
	StatusCode int
	Header     http.Header
}

// Get is a shorthand for a GET request without a body.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: query}, out)
}

// Post is a shorthand for a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body, out any) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: body}, out)
}

// Do sends req and decodes a successful JSON response into out (when out is
// non-nil). Every failure is returned as a *cms.Error.
func (c *Client) Do(ctx context.Context, req Request, out any) (*Response, error) {
	httpReq, err := c.newRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	logutil.Debugf("%s request: method=%s url=%s", c.Platform, httpReq.Method, httpReq.URL.Redacted())

	client := c.HTTP
	if client == nil {
		client = DefaultHTTPClient()
	}
	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, &cms.Error{
			Platform: c.Platform,
			Code:     cms.CodeNetwork,
			Message:  fmt.Sprintf("%s request failed: %v", c.Platform.DisplayName(), err),
			Err:      err,
		}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &cms.Error{
			Platform:   c.Platform,
			Code:       cms.CodeNetwork,
			Message:    fmt.Sprintf("read %s response: %v", c.Platform.DisplayName(), err),
			StatusCode: resp.StatusCode,
			Err:        err,
		}
	}

	meta := &Response{StatusCode: resp.StatusCode, Header: resp.Header}
	logutil.Debugf("%s response: status=%d bytes=%d", c.Platform, resp.StatusCode, len(data))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return meta, c.apiError(resp, data)
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return meta, nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return meta, &cms.Error{
			Platform:   c.Platform,
			Code:       cms.CodeDecode,
			Message:    fmt.Sprintf("decode %s response: %v", c.Platform.DisplayName(), err),
			StatusCode: resp.StatusCode,
			Err:        err,
		}
	}
	return meta, nil
}

func (c *Client) newRequest(ctx context.Context, req Request) (*http.Request, error) {
	target := strings.TrimRight(c.BaseURL, "/") + "/" + strings.TrimLeft(req.Path, "/")
	if len(req.Query) > 0 {
		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}
		target += sep + req.Query.Encode()
	}

	var body io.Reader
	contentType := req.ContentType
	switch b := req.Body.(type) {
	case nil:
	case io.Reader:
		body = b
	default:
		buf, err := json.Marshal(b)
		if err != nil {
			return nil, &cms.Error{
				Platform: c.Platform,
				Code:     cms.CodeValidation,
				Message:  fmt.Sprintf("encode %s request: %v", c.Platform.DisplayName(), err),
				Err:      err,
			}
		}
		body = bytes.NewReader(buf)
		if contentType == "" {
			contentType = "application/json"
		}
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, &cms.Error{
			Platform: c.Platform,
			Code:     cms.CodeNetwork,
			Message:  fmt.Sprintf("build %s request: %v", c.Platform.DisplayName(), err),
			Err:      err,
		}
	}

	for key, values := range c.Header {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}
	for key, values := range req.Header {
		httpReq.Header.Del(key)
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}

	if c.Authorize != nil {
		if err := c.Authorize(httpReq); err != nil {
			return nil, cms.AsError(err, c.Platform)
		}
	}
	return httpReq, nil
}

func (c *Client) apiError(resp *http.Response, data []byte) *cms.Error {
	body := map[string]any{}
	if err := json.Unmarshal(data, &body); err != nil {
		body = map[string]any{}
	}

	var message, code string
	if c.DecodeError != nil {
		message, code = c.DecodeError(body)
	}
	if message == "" {
		statusText := strings.TrimSpace(strings.TrimPrefix(resp.Status, fmt.Sprint(resp.StatusCode)))
		if statusText == "" {
			statusText = http.StatusText(resp.StatusCode)
		}
		message = fmt.Sprintf("%s API error: %s", c.Platform.DisplayName(), statusText)
	}

	details := map[string]any{"response": body}
	if code != "" {
		details["platform_code"] = code
	}
	errCode := cms.CodeAPIError
	if resp.StatusCode == http.StatusUnauthorized {
		errCode = cms.CodeInvalidAPIKey
	}
	return &cms.Error{
		Platform:   c.Platform,
		Code:       errCode,
		Message:    message,
		StatusCode: resp.StatusCode,
		Details:    details,
	}
}

// PlatformCode returns the platform specific error code carried by err, if any.
func PlatformCode(err error) string {
	var cmsErr *cms.Error
	if !errors.As(err, &cmsErr) || cmsErr.Details == nil {
		return ""
	}
	code, _ := cmsErr.Details["platform_code"].(string)
	return code
}

// ResponseBody returns the decoded error body carried by err, if any.
func ResponseBody(err error) map[string]any {
	var cmsErr *cms.Error
	if !errors.As(err, &cmsErr) || cmsErr.Details == nil {
		return nil
	}
	body, _ := cmsErr.Details["response"].(map[string]any)
	return body
}

// StringField reads a string value from a decoded JSON object.
func StringField(body map[string]any, key string) string {
	if body == nil {
		return ""
	}
	switch v := body[key].(type) {
	case string:
		return v
	case float64:
		return fmt.Sprint(v)
	}
	return ""
}

// FirstError returns the first object of a JSON array stored under key, which
// is how Ghost and Medium report errors.
func FirstError(body map[string]any, key string) map[string]any {
	list, ok := body[key].([]any)
	if !ok || len(list) == 0 {
		return nil
	}
	first, _ := list[0].(map[string]any)
	return first
}
