package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChoiceQuestion_Flatten(t *testing.T) {
	t.Run("renders question, sorted options, and answer", func(t *testing.T) {
		q := ChoiceQuestion{
			Question: "Which contract type fixes the total price?",
			Options: map[string]string{
				"C": "cost-plus",
				"A": "lump-sum",
				"B": "unit-price",
			},
			Answer: "A",
		}

		flat := q.Flatten()
		assert.Contains(t, flat, "Which contract type fixes the total price?")
		assert.Contains(t, flat, "Correct answer: A")

		// Option order follows sorted labels, not map iteration order.
		posA := strings.Index(flat, "A. lump-sum")
		posB := strings.Index(flat, "B. unit-price")
		posC := strings.Index(flat, "C. cost-plus")
		require.True(t, posA >= 0 && posB >= 0 && posC >= 0)
		assert.Less(t, posA, posB)
		assert.Less(t, posB, posC)
	})

	t.Run("is deterministic across calls", func(t *testing.T) {
		q := ChoiceQuestion{
			Question: "Pick one.",
			Options:  map[string]string{"B": "two", "A": "one", "D": "four", "C": "three"},
		}
		first := q.Flatten()
		for i := 0; i < 20; i++ {
			assert.Equal(t, first, q.Flatten())
		}
	})

	t.Run("omits empty sections", func(t *testing.T) {
		q := ChoiceQuestion{Question: "Open-ended?"}
		flat := q.Flatten()
		assert.NotContains(t, flat, "Options:")
		assert.NotContains(t, flat, "Correct answer:")
	})
}

func TestCaseStudy_Flatten(t *testing.T) {
	t.Run("background precedes sub-questions in original order", func(t *testing.T) {
		c := CaseStudy{
			Background:   "B",
			SubQuestions: []string{"q1", "q2"},
		}

		flat := c.Flatten()
		posB := strings.Index(flat, "B")
		pos1 := strings.Index(flat, "q1")
		pos2 := strings.Index(flat, "q2")
		require.True(t, posB >= 0 && pos1 >= 0 && pos2 >= 0)
		assert.Less(t, posB, pos1)
		assert.Less(t, pos1, pos2)
		assert.Contains(t, flat, "Sub-question 1: q1")
		assert.Contains(t, flat, "Sub-question 2: q2")
	})

	t.Run("is deterministic", func(t *testing.T) {
		c := CaseStudy{Background: "site facts", SubQuestions: []string{"a", "b", "c"}}
		assert.Equal(t, c.Flatten(), c.Flatten())
	})
}
