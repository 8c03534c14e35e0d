package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// ExamItem is any exam question that can be flattened into a single analysis
// query. Flattening must be deterministic: the same item always produces the
// same text.
type ExamItem interface {
	Flatten() string
}

// ChoiceQuestion is a single-answer or multi-answer question from the
// question bank.
type ChoiceQuestion struct {
	Question string
	Options  map[string]string
	Answer   string
}

// Flatten renders the question, its options sorted by label, and the correct
// answer when known.
func (q ChoiceQuestion) Flatten() string {
	var b strings.Builder
	b.WriteString("Question: ")
	b.WriteString(strings.TrimSpace(q.Question))
	b.WriteString("\n")

	if len(q.Options) > 0 {
		labels := make([]string, 0, len(q.Options))
		for label := range q.Options {
			labels = append(labels, label)
		}
		sort.Strings(labels)

		b.WriteString("Options:\n")
		for _, label := range labels {
			fmt.Fprintf(&b, "%s. %s\n", label, q.Options[label])
		}
	}

	if q.Answer != "" {
		fmt.Fprintf(&b, "Correct answer: %s\n", q.Answer)
	}

	return b.String()
}

// CaseStudy is a scenario question: shared background material followed by an
// ordered sequence of sub-questions.
type CaseStudy struct {
	Background   string
	SubQuestions []string
}

// Flatten renders the background followed by the sub-questions numbered in
// their original order.
func (c CaseStudy) Flatten() string {
	var b strings.Builder
	b.WriteString("Background: ")
	b.WriteString(strings.TrimSpace(c.Background))
	b.WriteString("\n")

	for i, sub := range c.SubQuestions {
		fmt.Fprintf(&b, "Sub-question %d: %s\n", i+1, sub)
	}

	return b.String()
}

// StoredQuestion is a choice question row from the exam bank.
type StoredQuestion struct {
	ID        int64
	Year      int
	Subject   Subject
	Number    int
	Type      string
	Question  string
	Options   map[string]string
	Answer    string
	Analysis  string
	CreatedAt time.Time
}

// StoredCase is a case study row from the exam bank.
type StoredCase struct {
	ID           int64
	Year         int
	Subject      Subject
	CaseNumber   int
	Title        string
	Background   string
	Score        int
	SubQuestions []StoredSubQuestion
	CreatedAt    time.Time
}

// StoredSubQuestion is one numbered question inside a stored case study.
type StoredSubQuestion struct {
	ID        int64
	SubNumber int
	Question  string
	Answer    string
	Analysis  string
}

// ExamStats summarizes the question bank contents.
type ExamStats struct {
	TotalQuestions int
	TotalCases     int
	TotalSubQs     int
	BySubject      map[Subject]int
	ByYear         map[int]int
	ByType         map[string]int
}
