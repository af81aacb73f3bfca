package loam

// SlideMetadata is the front-matter of a slide document.
// Elements and animations stay loosely typed here and are decoded with the same
// rules as file decks, so timings like "1.5s" work in both.
type SlideMetadata struct {
	ID         string           `json:"id" mapstructure:"id"`
	Title      string           `json:"title" mapstructure:"title"`
	Order      int              `json:"order" mapstructure:"order"`
	Elements   []map[string]any `json:"elements" mapstructure:"elements"`
	Animations []map[string]any `json:"animations" mapstructure:"animations"`
	Notes      string           `json:"notes" mapstructure:"notes"`
}
