package service

import (
	"fmt"
	"strings"

	"github.com/prepstack/examtutor/internal/domain"
)

// Exam analysis section headers. The synthesizer is instructed to structure
// its output under exactly these four headings.
const (
	SectionKnowledgePoints  = "Knowledge Points"
	SectionSolutionApproach = "Solution Approach"
	SectionTextbookBasis    = "Textbook Basis"
	SectionCommonPitfalls   = "Common Pitfalls"
)

const openQuestionSystem = `You are a tutor helping candidates prepare for a professional licensing exam. Answer using the reference excerpts provided. When the excerpts do not cover the question, say so plainly instead of guessing. Keep answers focused and cite concepts by name rather than by excerpt number.`

const examAnalysisSystem = `You are a tutor helping candidates prepare for a professional licensing exam. Analyze the exam item using the reference excerpts provided. Structure your analysis under exactly these four headings: ` +
	SectionKnowledgePoints + `, ` + SectionSolutionApproach + `, ` + SectionTextbookBasis + `, ` + SectionCommonPitfalls + `. Ground the Textbook Basis section in the excerpts; when they do not cover the item, state that the analysis relies on general knowledge.`

const noGroundingNotice = "No reference excerpts matched this request. Answer from general knowledge and state that no course material was found to support the answer."

// ComposeOpenQuestion builds the prompt pair for a free-form question. The
// same query and chunks always produce byte-identical prompts.
func ComposeOpenQuestion(query string, chunks []domain.RetrievedChunk) Prompt {
	var user strings.Builder
	writeContext(&user, chunks)
	user.WriteString("Question: ")
	user.WriteString(query)

	return Prompt{System: openQuestionSystem, User: user.String()}
}

// ComposeExamAnalysis builds the prompt pair for analyzing a flattened exam
// item under a subject.
func ComposeExamAnalysis(item domain.ExamItem, subject domain.Subject, chunks []domain.RetrievedChunk) Prompt {
	var user strings.Builder
	writeContext(&user, chunks)
	fmt.Fprintf(&user, "Subject: %s\n\n", subject)
	user.WriteString("Exam item:\n")
	user.WriteString(item.Flatten())

	return Prompt{System: examAnalysisSystem, User: user.String()}
}

// writeContext renders retrieved chunks in rank order, one numbered excerpt
// per chunk tagged with its subject and source attribution. With no chunks it
// emits the no-grounding notice instead.
func writeContext(w *strings.Builder, chunks []domain.RetrievedChunk) {
	if len(chunks) == 0 {
		w.WriteString(noGroundingNotice)
		w.WriteString("\n\n")
		return
	}

	w.WriteString("Reference excerpts:\n\n")
	for _, c := range chunks {
		fmt.Fprintf(w, "[%d] (%s: %s", c.Rank, c.Chunk.Subject, c.Chunk.SourceLabel)
		if c.Chunk.Page > 0 {
			fmt.Fprintf(w, ", p.%d", c.Chunk.Page)
		}
		w.WriteString(")\n")
		w.WriteString(c.Chunk.Content)
		w.WriteString("\n\n")
	}
}
