package notion

import "encoding/json"

// PropertySchema describes one database column.
type PropertySchema struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// Database is a Notion database and its property schema.
type Database struct {
	Object     string                    `json:"object"`
	ID         string                    `json:"id"`
	Title      []RichText                `json:"title"`
	URL        string                    `json:"url"`
	Properties map[string]PropertySchema `json:"properties"`
	Archived   bool                      `json:"archived"`
}

// Parent identifies where a page lives.
type Parent struct {
	Type       string `json:"type,omitempty"`
	DatabaseID string `json:"database_id,omitempty"`
	PageID     string `json:"page_id,omitempty"`
}

// Page is a Notion page. Properties are kept raw because their shape depends
// on the database schema.
type Page struct {
	Object         string                     `json:"object"`
	ID             string                     `json:"id"`
	URL            string                     `json:"url"`
	Parent         Parent                     `json:"parent"`
	Archived       bool                       `json:"archived"`
	CreatedTime    string                     `json:"created_time"`
	LastEditedTime string                     `json:"last_edited_time"`
	Properties     map[string]json.RawMessage `json:"properties"`
}

// CreatePageRequest is the body of a create page call.
type CreatePageRequest struct {
	Parent     Parent         `json:"parent"`
	Properties map[string]any `json:"properties"`
	Children   []Block        `json:"children,omitempty"`
}

// QueryRequest filters and sorts a database query.
type QueryRequest struct {
	Filter      any    `json:"filter,omitempty"`
	Sorts       any    `json:"sorts,omitempty"`
	StartCursor string `json:"start_cursor,omitempty"`
	PageSize    int    `json:"page_size,omitempty"`
}

// PageList is a paginated list of pages.
type PageList struct {
	Results    []Page  `json:"results"`
	NextCursor *string `json:"next_cursor"`
	HasMore    bool    `json:"has_more"`
}

// User is a Notion user or bot.
type User struct {
	Object    string `json:"object"`
	ID        string `json:"id"`
	Type      string `json:"type"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
	Bot       *struct {
		WorkspaceName string `json:"workspace_name"`
	} `json:"bot,omitempty"`
	Person *struct {
		Email string `json:"email"`
	} `json:"person,omitempty"`
}
