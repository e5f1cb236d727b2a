package webflow

// Field types this package writes to.
const (
	FieldPlainText = "PlainText"
	FieldRichText  = "RichText"
	FieldLink      = "Link"
)

// Site is a Webflow site.
type Site struct {
	ID            string         `json:"id"`
	WorkspaceID   string         `json:"workspaceId"`
	DisplayName   string         `json:"displayName"`
	ShortName     string         `json:"shortName"`
	PreviewURL    string         `json:"previewUrl"`
	TimeZone      string         `json:"timeZone"`
	LastPublished string         `json:"lastPublished"`
	CustomDomains []CustomDomain `json:"customDomains"`
}

// CustomDomain is a domain attached to a site.
type CustomDomain struct {
	ID            string `json:"id"`
	URL           string `json:"url"`
	LastPublished string `json:"lastPublished"`
}

// Collection is a CMS collection. Fields are only populated when the
// collection is fetched by ID.
type Collection struct {
	ID           string  `json:"id"`
	DisplayName  string  `json:"displayName"`
	SingularName string  `json:"singularName"`
	Slug         string  `json:"slug"`
	CreatedOn    string  `json:"createdOn"`
	LastUpdated  string  `json:"lastUpdated"`
	Fields       []Field `json:"fields,omitempty"`
}

// Field describes one collection field.
type Field struct {
	ID          string `json:"id"`
	IsRequired  bool   `json:"isRequired"`
	IsEditable  bool   `json:"isEditable"`
	Type        string `json:"type"`
	Slug        string `json:"slug"`
	DisplayName string `json:"displayName"`
	HelpText    string `json:"helpText"`
}

// Item is a collection item.
type Item struct {
	ID            string         `json:"id,omitempty"`
	CMSLocaleID   string         `json:"cmsLocaleId,omitempty"`
	LastPublished string         `json:"lastPublished,omitempty"`
	LastUpdated   string         `json:"lastUpdated,omitempty"`
	CreatedOn     string         `json:"createdOn,omitempty"`
	IsArchived    bool           `json:"isArchived"`
	IsDraft       bool           `json:"isDraft"`
	FieldData     map[string]any `json:"fieldData"`
}

// Slug returns the item slug from its field data.
func (i Item) Slug() string {
	s, _ := i.FieldData["slug"].(string)
	return s
}

// ItemList is a page of collection items.
type ItemList struct {
	Items      []Item     `json:"items"`
	Pagination Pagination `json:"pagination"`
}

// Pagination is the offset pagination block of list responses.
type Pagination struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Total  int `json:"total"`
}

// AuthorizedBy is the user who authorized an API token.
type AuthorizedBy struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}
