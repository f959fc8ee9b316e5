package domain

// Complexity is the difficulty level of an ebook. Closed set.
type Complexity string

const (
	ComplexityBeginner     Complexity = "beginner"
	ComplexityIntermediate Complexity = "intermediate"
	ComplexityAdvanced     Complexity = "advanced"
	ComplexityResearch     Complexity = "research"
)

// Valid reports whether c is one of the known complexity levels.
func (c Complexity) Valid() bool {
	switch c {
	case ComplexityBeginner, ComplexityIntermediate, ComplexityAdvanced, ComplexityResearch:
		return true
	}
	return false
}

// Ebook is the canonical catalog record. It mirrors the external data
// contract (the ebooks table) and is never mutated by the search layer.
type Ebook struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	AuthorID      int        `json:"authorId"`
	Author        string     `json:"author"`
	Price         Price      `json:"price"`
	CoverURL      string     `json:"coverUrl,omitempty"`
	Category      string     `json:"category"`
	Complexity    Complexity `json:"complexity"`
	Prerequisites []string   `json:"prerequisites"`
	FrameworkTags []string   `json:"frameworkTags"`
	PageCount     int        `json:"pageCount"`
}
