package shopify

// Shop is the store behind an access token.
type Shop struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	Domain          string `json:"domain"`
	MyshopifyDomain string `json:"myshopify_domain"`
	ShopOwner       string `json:"shop_owner"`
	Currency        string `json:"currency"`
	PlanName        string `json:"plan_name"`
}

// Blog is a container of articles.
type Blog struct {
	ID             int64  `json:"id,omitempty"`
	Title          string `json:"title"`
	Handle         string `json:"handle,omitempty"`
	Commentable    string `json:"commentable,omitempty"`
	Tags           string `json:"tags,omitempty"`
	CreatedAt      string `json:"created_at,omitempty"`
	UpdatedAt      string `json:"updated_at,omitempty"`
	AdminGraphqlID string `json:"admin_graphql_api_id,omitempty"`
}

// Article is a blog post.
type Article struct {
	ID          int64  `json:"id,omitempty"`
	BlogID      int64  `json:"blog_id,omitempty"`
	Title       string `json:"title"`
	Handle      string `json:"handle,omitempty"`
	BodyHTML    string `json:"body_html"`
	SummaryHTML string `json:"summary_html,omitempty"`
	Author      string `json:"author,omitempty"`
	Tags        string `json:"tags,omitempty"`
	Published   *bool  `json:"published,omitempty"`
	PublishedAt string `json:"published_at,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
	UpdatedAt   string `json:"updated_at,omitempty"`
}

// Product is a catalog product.
type Product struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Handle      string `json:"handle"`
	BodyHTML    string `json:"body_html"`
	Vendor      string `json:"vendor"`
	ProductType string `json:"product_type"`
	Status      string `json:"status"`
	Tags        string `json:"tags"`
}

// CustomCollection is a manually curated product collection.
type CustomCollection struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Handle    string `json:"handle"`
	BodyHTML  string `json:"body_html"`
	Published bool   `json:"published"`
}

// Collect links a product to a custom collection.
type Collect struct {
	ID           int64 `json:"id"`
	CollectionID int64 `json:"collection_id"`
	ProductID    int64 `json:"product_id"`
	Position     int   `json:"position"`
}

// ListOptions are the common REST list parameters.
type ListOptions struct {
	Limit   int
	SinceID int64
	Fields  string
}
