package medium

// Content formats accepted by the create post endpoints.
const (
	FormatHTML     = "html"
	FormatMarkdown = "markdown"
)

// User is the authenticated Medium user.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	URL      string `json:"url"`
	ImageURL string `json:"imageUrl"`
}

// Publication is a Medium publication the user can contribute to.
type Publication struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	URL         string `json:"url"`
	ImageURL    string `json:"imageUrl"`
}

// CreatePostRequest is the body of a create post call.
type CreatePostRequest struct {
	Title           string   `json:"title"`
	ContentFormat   string   `json:"contentFormat"`
	Content         string   `json:"content"`
	Tags            []string `json:"tags,omitempty"`
	CanonicalURL    string   `json:"canonicalUrl,omitempty"`
	PublishStatus   string   `json:"publishStatus,omitempty"`
	License         string   `json:"license,omitempty"`
	NotifyFollowers bool     `json:"notifyFollowers,omitempty"`
}

// Post is a created Medium story.
type Post struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	AuthorID      string   `json:"authorId"`
	Tags          []string `json:"tags"`
	URL           string   `json:"url"`
	CanonicalURL  string   `json:"canonicalUrl"`
	PublishStatus string   `json:"publishStatus"`
	PublishedAt   int64    `json:"publishedAt"`
	License       string   `json:"license"`
	LicenseURL    string   `json:"licenseUrl"`
}
