// Package result defines the canonical search hit and the conversions from
// the heterogeneous raw shapes the backends produce.
package result

import "github.com/mebooks-ai/mebooks/internal/domain"

// Result is a single normalized search hit. SimilarityScore is only
// comparable within one search call's result set; it is not calibrated
// across different backends.
type Result struct {
	EbookID         string   `json:"ebook_id"`
	Title           string   `json:"title"`
	Author          string   `json:"author"`
	Category        string   `json:"category"`
	Complexity      string   `json:"complexity"`
	SimilarityScore float64  `json:"similarity_score"`
	RelevantChunks  []string `json:"relevant_chunks"`
	Keywords        []string `json:"keywords"`
	Summary         string   `json:"semantic_summary"`
}

// FromEbook converts a catalog record into a search hit with a synthetic
// score. The keyword fallback produces no extracted chunks.
func FromEbook(e domain.Ebook, score float64) Result {
	return Result{
		EbookID:         e.ID,
		Title:           e.Title,
		Author:          e.Author,
		Category:        e.Category,
		Complexity:      string(e.Complexity),
		SimilarityScore: score,
		RelevantChunks:  []string{},
		Keywords:        append([]string{}, e.FrameworkTags...),
		Summary:         e.Description,
	}
}

// FromEbooks converts catalog records in their original order.
func FromEbooks(ebooks []domain.Ebook, score float64) []Result {
	out := make([]Result, len(ebooks))
	for i, e := range ebooks {
		out[i] = FromEbook(e, score)
	}
	return out
}
