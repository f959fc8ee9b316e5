package result

// Raw is a loosely-shaped search record as produced by the semantic service,
// the cache, or an older keyword payload. Field spellings vary across
// origins; Normalize resolves them with a fixed precedence.
type Raw struct {
	EbookID         string   `json:"ebook_id"`
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Author          string   `json:"author"`
	Category        string   `json:"category"`
	Complexity      string   `json:"complexity"`
	SimilarityScore *float64 `json:"similarity_score"`
	RelevantChunks  []string `json:"relevant_chunks"`
	Keywords        []string `json:"keywords"`
	FrameworkTags   []string `json:"frameworkTags"`
	SemanticSummary string   `json:"semantic_summary"`
	Description     string   `json:"description"`
}

// Normalize maps a raw record into the canonical Result. It is total (every
// input yields a well-formed Result) and idempotent: normalizing the Raw form
// of an already-normalized Result yields the same Result.
//
// Precedence per field, first match wins:
//   - EbookID: ebook_id, else id, else empty
//   - SimilarityScore: the numeric value if present, else 0
//   - Keywords: keywords, else frameworkTags, else empty
//   - Summary: semantic_summary, else description, else empty
func Normalize(r Raw) Result {
	id := r.EbookID
	if id == "" {
		id = r.ID
	}

	score := 0.0
	if r.SimilarityScore != nil {
		score = *r.SimilarityScore
	}

	keywords := r.Keywords
	if keywords == nil {
		keywords = r.FrameworkTags
	}
	if keywords == nil {
		keywords = []string{}
	}

	chunks := r.RelevantChunks
	if chunks == nil {
		chunks = []string{}
	}

	summary := r.SemanticSummary
	if summary == "" {
		summary = r.Description
	}

	return Result{
		EbookID:         id,
		Title:           r.Title,
		Author:          r.Author,
		Category:        r.Category,
		Complexity:      r.Complexity,
		SimilarityScore: score,
		RelevantChunks:  chunks,
		Keywords:        keywords,
		Summary:         summary,
	}
}

// NormalizeAll maps a slice of raw records, preserving order.
func NormalizeAll(raws []Raw) []Result {
	out := make([]Result, len(raws))
	for i, r := range raws {
		out[i] = Normalize(r)
	}
	return out
}

// Raw converts a Result back into its raw form. Round-tripping through
// Normalize is the identity.
func (r Result) Raw() Raw {
	score := r.SimilarityScore
	return Raw{
		EbookID:         r.EbookID,
		Title:           r.Title,
		Author:          r.Author,
		Category:        r.Category,
		Complexity:      r.Complexity,
		SimilarityScore: &score,
		RelevantChunks:  r.RelevantChunks,
		Keywords:        r.Keywords,
		SemanticSummary: r.Summary,
	}
}
