package wordpress

import (
	"net/url"
	"strconv"
)

// Rendered is a field WordPress returns both raw and rendered.
type Rendered struct {
	Raw       string `json:"raw,omitempty"`
	Rendered  string `json:"rendered"`
	Protected bool   `json:"protected,omitempty"`
}

// Post is a WordPress post as returned by the REST API.
type Post struct {
	ID            int64    `json:"id"`
	Date          string   `json:"date"`
	DateGMT       string   `json:"date_gmt"`
	Modified      string   `json:"modified"`
	Slug          string   `json:"slug"`
	Status        string   `json:"status"`
	Type          string   `json:"type"`
	Link          string   `json:"link"`
	Title         Rendered `json:"title"`
	Content       Rendered `json:"content"`
	Excerpt       Rendered `json:"excerpt"`
	Author        int64    `json:"author"`
	FeaturedMedia int64    `json:"featured_media"`
	Categories    []int64  `json:"categories"`
	Tags          []int64  `json:"tags"`
}

// PostRequest is the body of create and update calls. Zero fields are left
// untouched on update.
type PostRequest struct {
	Title         string  `json:"title,omitempty"`
	Content       string  `json:"content,omitempty"`
	Excerpt       string  `json:"excerpt,omitempty"`
	Status        string  `json:"status,omitempty"`
	Slug          string  `json:"slug,omitempty"`
	Categories    []int64 `json:"categories,omitempty"`
	Tags          []int64 `json:"tags,omitempty"`
	FeaturedMedia int64   `json:"featured_media,omitempty"`
}

// Category is a hierarchical taxonomy term.
type Category struct {
	ID          int64  `json:"id"`
	Count       int    `json:"count"`
	Description string `json:"description"`
	Link        string `json:"link"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Parent      int64  `json:"parent"`
}

// Tag is a flat taxonomy term.
type Tag struct {
	ID          int64  `json:"id,omitempty"`
	Count       int    `json:"count,omitempty"`
	Description string `json:"description,omitempty"`
	Link        string `json:"link,omitempty"`
	Name        string `json:"name"`
	Slug        string `json:"slug,omitempty"`
}

// Media is an uploaded attachment.
type Media struct {
	ID        int64    `json:"id"`
	Date      string   `json:"date"`
	Slug      string   `json:"slug"`
	Link      string   `json:"link"`
	Title     Rendered `json:"title"`
	AltText   string   `json:"alt_text"`
	MediaType string   `json:"media_type"`
	MimeType  string   `json:"mime_type"`
	SourceURL string   `json:"source_url"`
}

// User is a WordPress user.
type User struct {
	ID          int64             `json:"id"`
	Name        string            `json:"name"`
	Slug        string            `json:"slug"`
	URL         string            `json:"url"`
	Link        string            `json:"link"`
	Description string            `json:"description"`
	AvatarURLs  map[string]string `json:"avatar_urls"`
}

// ListResult is one page of a collection plus the totals WordPress reports
// in the X-WP-Total and X-WP-TotalPages headers.
type ListResult[T any] struct {
	Items      []T
	Total      int
	TotalPages int
}

// ListOptions are the common collection parameters.
type ListOptions struct {
	Page    int
	PerPage int
	Search  string
	Status  string
}

func (o ListOptions) values() url.Values {
	q := url.Values{}
	if o.Page > 0 {
		q.Set("page", strconv.Itoa(o.Page))
	}
	if o.PerPage > 0 {
		q.Set("per_page", strconv.Itoa(o.PerPage))
	}
	if o.Search != "" {
		q.Set("search", o.Search)
	}
	if o.Status != "" {
		q.Set("status", o.Status)
	}
	return q
}
