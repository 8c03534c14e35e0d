package service

import (
	"strings"
	"unicode/utf8"

	"github.com/prepstack/examtutor/internal/domain"
)

// ResolveCitations maps retrieved chunks to the source references returned
// alongside an answer. References are built only from what was retrieved;
// model output never contributes a citation. Duplicate chunks collapse to
// one reference, and rank order is preserved.
func ResolveCitations(chunks []domain.RetrievedChunk, maxChars int) []domain.SourceRef {
	refs := make([]domain.SourceRef, 0, len(chunks))
	seen := make(map[int64]struct{}, len(chunks))

	for _, c := range chunks {
		if _, ok := seen[c.Chunk.ID]; ok {
			continue
		}
		seen[c.Chunk.ID] = struct{}{}
		refs = append(refs, domain.SourceRef{
			Subject: c.Chunk.Subject,
			Content: excerpt(c.Chunk.Content, maxChars),
		})
	}

	return refs
}

// excerpt truncates content to at most maxChars runes, ellipsis included,
// never splitting a multi-byte character.
func excerpt(content string, maxChars int) string {
	content = strings.TrimSpace(content)
	if maxChars <= 0 || utf8.RuneCountInString(content) <= maxChars {
		return content
	}

	runes := []rune(content)
	if maxChars <= len("...") {
		return string(runes[:maxChars])
	}
	return string(runes[:maxChars-len("...")]) + "..."
}
