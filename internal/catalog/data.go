package catalog

import "github.com/mebooks-ai/mebooks/internal/domain"

// Development dataset mirroring the marketplace's seed catalog.

var seedAuthors = map[int]string{
	1: "Dr. Sarah Chen",
	2: "Prof. Michael Rodriguez",
	3: "Dr. Emma Thompson",
	4: "Dr. James Park",
	5: "Lisa Wang",
	6: "Dr. Robert Kim",
}

// AuthorName resolves an author id to a display name.
func AuthorName(id int) string {
	if name, ok := seedAuthors[id]; ok {
		return name
	}
	return "Unknown Author"
}

func seedEbooks() []domain.Ebook {
	return []domain.Ebook{
		{
			ID:            "1",
			Title:         "Machine Learning Fundamentals",
			Description:   "Complete guide to ML algorithms and applications. Learn the core concepts, mathematics, and practical implementation of machine learning techniques.",
			AuthorID:      1,
			Author:        AuthorName(1),
			Price:         domain.MustParsePrice("29.99"),
			Category:      "Machine Learning",
			Complexity:    domain.ComplexityBeginner,
			Prerequisites: []string{"Basic Python", "High School Math"},
			FrameworkTags: []string{"Python", "Scikit-learn", "Pandas"},
			PageCount:     245,
		},
		{
			ID:            "2",
			Title:         "Deep Learning with TensorFlow",
			Description:   "Advanced neural networks and practical implementation. Master deep learning architectures and build production-ready models.",
			AuthorID:      2,
			Author:        AuthorName(2),
			Price:         domain.MustParsePrice("49.99"),
			Category:      "Deep Learning",
			Complexity:    domain.ComplexityAdvanced,
			Prerequisites: []string{"Machine Learning Basics", "Linear Algebra", "Python"},
			FrameworkTags: []string{"TensorFlow", "Keras", "Python"},
			PageCount:     387,
		},
		{
			ID:            "3",
			Title:         "Natural Language Processing Essentials",
			Description:   "Text processing and language understanding with AI. From tokenization to transformer models, master NLP techniques.",
			AuthorID:      3,
			Author:        AuthorName(3),
			Price:         domain.MustParsePrice("39.99"),
			Category:      "NLP",
			Complexity:    domain.ComplexityIntermediate,
			Prerequisites: []string{"Python Programming", "Basic ML"},
			FrameworkTags: []string{"NLTK", "spaCy", "Transformers"},
			PageCount:     298,
		},
		{
			ID:            "4",
			Title:         "Computer Vision Applications",
			Description:   "Image processing and recognition systems. Build computer vision applications from object detection to image generation.",
			AuthorID:      4,
			Author:        AuthorName(4),
			Price:         domain.MustParsePrice("44.99"),
			Category:      "Computer Vision",
			Complexity:    domain.ComplexityAdvanced,
			Prerequisites: []string{"Deep Learning", "Linear Algebra", "Python"},
			FrameworkTags: []string{"OpenCV", "PyTorch", "PIL"},
			PageCount:     356,
		},
		{
			ID:            "5",
			Title:         "Data Science with Python",
			Description:   "Complete data analysis and visualization guide. Master the full data science pipeline from collection to insights.",
			AuthorID:      5,
			Author:        AuthorName(5),
			Price:         domain.MustParsePrice("34.99"),
			Category:      "Data Science",
			Complexity:    domain.ComplexityBeginner,
			Prerequisites: []string{"Basic Python", "Statistics"},
			FrameworkTags: []string{"Python", "Matplotlib", "Seaborn"},
			PageCount:     278,
		},
		{
			ID:            "6",
			Title:         "AI Ethics and Governance",
			Description:   "Responsible AI development and deployment. Navigate the ethical challenges of AI systems in society.",
			AuthorID:      6,
			Author:        AuthorName(6),
			Price:         domain.MustParsePrice("24.99"),
			Category:      "AI Ethics",
			Complexity:    domain.ComplexityIntermediate,
			Prerequisites: []string{"Basic AI Knowledge"},
			FrameworkTags: []string{"Policy", "Governance", "Fairness"},
			PageCount:     189,
		},
	}
}
