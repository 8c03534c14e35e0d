package domain

// SourceRef is one cited source passage returned to the caller. Content is a
// bounded excerpt of the chunk that was placed in the prompt, never text the
// model claims to have used.
type SourceRef struct {
	Subject Subject `json:"subject"`
	Content string  `json:"content"`
}

// AnalysisResult is the structured output of exam-item analysis. Sources are
// deduplicated by chunk identity and preserve retrieval rank order.
type AnalysisResult struct {
	Analysis string      `json:"analysis"`
	Sources  []SourceRef `json:"sources"`
}

// AskResult is the answer to a free-text question. An empty Sources slice
// means no textbook grounding cleared the similarity floor and the answer was
// generated from general knowledge.
type AskResult struct {
	Answer  string      `json:"answer"`
	Sources []SourceRef `json:"sources"`
}
