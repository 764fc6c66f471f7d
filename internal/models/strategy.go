package models

// TitleVariant selects which title field the site searches against.
type TitleVariant string

const (
	// VariantOriginal searches the original (usually romanized Japanese) title.
	VariantOriginal TitleVariant = "org"
	// VariantEnglish searches the English title.
	VariantEnglish TitleVariant = "en"
)

// SearchStrategy is one query to try against the site's search page.
// Strategies are generated most specific first; duplicates by
// (Variant, Query) are suppressed by the planner.
type SearchStrategy struct {
	Query   string
	Variant TitleVariant
}
