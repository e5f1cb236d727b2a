package ghost

import "github.com/blacktop/xpublish/internal/cms"

// Post is a Ghost post resource.
type Post struct {
	ID            string   `json:"id,omitempty"`
	UUID          string   `json:"uuid,omitempty"`
	Title         string   `json:"title,omitempty"`
	Slug          string   `json:"slug,omitempty"`
	HTML          string   `json:"html,omitempty"`
	Status        string   `json:"status,omitempty"`
	Visibility    string   `json:"visibility,omitempty"`
	URL           string   `json:"url,omitempty"`
	CanonicalURL  string   `json:"canonical_url,omitempty"`
	CustomExcerpt string   `json:"custom_excerpt,omitempty"`
	FeatureImage  string   `json:"feature_image,omitempty"`
	Tags          []Tag    `json:"tags,omitempty"`
	Authors       []Author `json:"authors,omitempty"`
	CreatedAt     string   `json:"created_at,omitempty"`
	UpdatedAt     string   `json:"updated_at,omitempty"`
	PublishedAt   string   `json:"published_at,omitempty"`
}

// Tag is a Ghost tag. Only Name is needed when attaching tags to a post.
type Tag struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	Slug        string `json:"slug,omitempty"`
	Description string `json:"description,omitempty"`
}

// Author is a Ghost staff user attached to a post.
type Author struct {
	ID           string `json:"id,omitempty"`
	Name         string `json:"name,omitempty"`
	Slug         string `json:"slug,omitempty"`
	Email        string `json:"email,omitempty"`
	ProfileImage string `json:"profile_image,omitempty"`
	URL          string `json:"url,omitempty"`
}

// Site is the subset of site settings exposed by /site/.
type Site struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Logo        string `json:"logo"`
	Icon        string `json:"icon"`
	URL         string `json:"url"`
	Version     string `json:"version"`
}

// Pagination mirrors meta.pagination on list responses.
type Pagination struct {
	Page  int  `json:"page"`
	Limit int  `json:"limit"`
	Pages int  `json:"pages"`
	Total int  `json:"total"`
	Next  *int `json:"next"`
	Prev  *int `json:"prev"`
}

type meta struct {
	Pagination Pagination `json:"pagination"`
}

type postsEnvelope struct {
	Posts []Post `json:"posts"`
}

func (e postsEnvelope) first() (*Post, error) {
	if len(e.Posts) == 0 {
		return nil, cms.NewError(platform, cms.CodeDecode, "response contained no posts")
	}
	return &e.Posts[0], nil
}
