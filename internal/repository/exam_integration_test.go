//go:build integration

package repository

import (
	"context"
	"testing"

	"github.com/prepstack/examtutor/internal/domain"
	"github.com/prepstack/examtutor/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleQuestions() []domain.StoredQuestion {
	return []domain.StoredQuestion{
		{
			Year:     2023,
			Subject:  domain.SubjectEngineeringEconomics,
			Number:   1,
			Type:     "single",
			Question: "Which indicator discounts future cash flows to today?",
			Options: map[string]string{
				"A": "Net present value",
				"B": "Payback period",
				"C": "Accounting rate of return",
				"D": "Gross margin",
			},
			Answer:   "A",
			Analysis: "NPV discounts all cash flows at the required rate of return.",
		},
		{
			Year:     2023,
			Subject:  domain.SubjectEngineeringEconomics,
			Number:   2,
			Type:     "multi",
			Question: "Which of the following belong to project financing costs?",
			Options: map[string]string{
				"A": "Loan interest",
				"B": "Bond issuance fees",
				"C": "Staff wages",
			},
			Answer: "AB",
		},
		{
			Year:     2022,
			Subject:  domain.SubjectLawAndRegulation,
			Number:   1,
			Type:     "single",
			Question: "What is the statute of limitation for construction contract disputes?",
		},
	}
}

func TestExamRepository_ImportAndListQuestions(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewExamRepository(pool)

	imported, err := repo.ImportQuestions(ctx, sampleQuestions())
	require.NoError(t, err)
	assert.Equal(t, 3, imported)

	// Re-importing the same rows is a no-op.
	imported, err = repo.ImportQuestions(ctx, sampleQuestions())
	require.NoError(t, err)
	assert.Equal(t, 0, imported)

	page, err := repo.ListQuestions(ctx, QuestionFilter{})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	require.Len(t, page.Items, 3)

	// Newest year first, then subject and number.
	first := page.Items[0]
	assert.Equal(t, 2023, first.Year)
	assert.Equal(t, 1, first.Number)
	assert.Equal(t, "A", first.Answer)
	require.Len(t, first.Options, 4)
	assert.Equal(t, "Net present value", first.Options["A"])

	// The unanswered row round-trips as empty strings, not SQL nulls.
	last := page.Items[2]
	assert.Equal(t, domain.SubjectLawAndRegulation, last.Subject)
	assert.Empty(t, last.Answer)
	assert.Empty(t, last.Analysis)
}

func TestExamRepository_ListQuestions_Filters(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewExamRepository(pool)
	_, err := repo.ImportQuestions(ctx, sampleQuestions())
	require.NoError(t, err)

	subject := domain.SubjectEngineeringEconomics
	page, err := repo.ListQuestions(ctx, QuestionFilter{Subject: &subject, Year: 2023, Type: "multi"})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
	require.Len(t, page.Items, 1)
	assert.Equal(t, 2, page.Items[0].Number)

	page, err = repo.ListQuestions(ctx, QuestionFilter{Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	assert.Len(t, page.Items, 1)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 2, page.PageSize)
}

func TestExamRepository_SearchQuestions(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewExamRepository(pool)
	_, err := repo.ImportQuestions(ctx, sampleQuestions())
	require.NoError(t, err)

	found, err := repo.SearchQuestions(ctx, "cash flows", QuestionFilter{})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, 1, found[0].Number)
	assert.Len(t, found[0].Options, 4)

	subject := domain.SubjectLawAndRegulation
	found, err = repo.SearchQuestions(ctx, "cash flows", QuestionFilter{Subject: &subject})
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestExamRepository_ImportAndListCases(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewExamRepository(pool)

	cases := []domain.StoredCase{
		{
			Year:       2023,
			Subject:    domain.SubjectProjectManagement,
			CaseNumber: 1,
			Title:      "Schedule compression on a substation project",
			Background: "A contractor falls three weeks behind on the critical path.",
			Score:      20,
			SubQuestions: []domain.StoredSubQuestion{
				{SubNumber: 1, Question: "Which activities should be crashed first?", Answer: "Critical path activities with the lowest crash cost slope."},
				{SubNumber: 2, Question: "Name two risks of schedule crashing."},
			},
		},
	}

	imported, err := repo.ImportCases(ctx, cases)
	require.NoError(t, err)
	assert.Equal(t, 1, imported)

	imported, err = repo.ImportCases(ctx, cases)
	require.NoError(t, err)
	assert.Equal(t, 0, imported)

	page, err := repo.ListCases(ctx, CaseFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
	require.Len(t, page.Items, 1)

	got := page.Items[0]
	assert.Equal(t, "Schedule compression on a substation project", got.Title)
	assert.Equal(t, 20, got.Score)
	require.Len(t, got.SubQuestions, 2)
	assert.Equal(t, 1, got.SubQuestions[0].SubNumber)
	assert.NotEmpty(t, got.SubQuestions[0].Answer)
	assert.Empty(t, got.SubQuestions[1].Answer)
}

func TestExamRepository_Stats(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewExamRepository(pool)
	_, err := repo.ImportQuestions(ctx, sampleQuestions())
	require.NoError(t, err)

	_, err = repo.ImportCases(ctx, []domain.StoredCase{
		{
			Year:       2023,
			Subject:    domain.SubjectProjectManagement,
			CaseNumber: 1,
			Title:      "Case",
			Background: "Background",
			SubQuestions: []domain.StoredSubQuestion{
				{SubNumber: 1, Question: "Q1"},
			},
		},
	})
	require.NoError(t, err)

	stats, err := repo.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalQuestions)
	assert.Equal(t, 1, stats.TotalCases)
	assert.Equal(t, 1, stats.TotalSubQs)
	assert.Equal(t, 2, stats.BySubject[domain.SubjectEngineeringEconomics])
	assert.Equal(t, 2, stats.ByYear[2023])
	assert.Equal(t, 1, stats.ByYear[2022])
	assert.Equal(t, 2, stats.ByType["single"])
	assert.Equal(t, 1, stats.ByType["multi"])
}
