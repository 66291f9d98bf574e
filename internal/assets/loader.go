package assets

// Built-in asset names.
const (
	// DefaultStyleName is the stylesheet copied next to rendered pages.
	DefaultStyleName = "default"
	// PageTemplateName is the layout wrapping every rendered page.
	PageTemplateName = "page"
	// StylesheetFileName is the file name the stylesheet is copied to and
	// linked from.
	StylesheetFileName = "style.css"
)

// AssetLoader defines the contract for loading stylesheets and page templates.
type AssetLoader interface {
	// LoadStyle loads a CSS style by name (without .css extension).
	// Returns ErrStyleNotFound if the style doesn't exist.
	// Returns ErrInvalidAssetName if the name contains invalid characters.
	LoadStyle(name string) (string, error)

	// LoadTemplate loads an HTML template by name (without .html extension).
	// Returns ErrTemplateNotFound if the template doesn't exist.
	// Returns ErrInvalidAssetName if the name contains invalid characters.
	LoadTemplate(name string) (string, error)
}
