package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/prepstack/examtutor/internal/config"
	"github.com/prepstack/examtutor/internal/database"
	"github.com/prepstack/examtutor/internal/domain"
	"github.com/prepstack/examtutor/internal/logger"
	"github.com/prepstack/examtutor/internal/repository"
)

// ImportExamsCmd returns the import-exams command
func ImportExamsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import-exams <file.json>",
		Short: "Import historical exam questions and case studies",
		Long: `Load a JSON exam bank file into the database.

The file carries a "questions" array of choice questions and a "cases" array
of case studies. Rows that collide with already imported items on
(year, subject, number) are skipped, so re-importing the same file is safe.`,
		Args: cobra.ExactArgs(1),
		RunE: runImportExams,
	}

	return cmd
}

type examBankFile struct {
	Questions []examQuestionRecord `json:"questions"`
	Cases     []examCaseRecord     `json:"cases"`
}

type examQuestionRecord struct {
	Year     int               `json:"year"`
	Subject  string            `json:"subject"`
	Number   int               `json:"number"`
	Type     string            `json:"type"`
	Question string            `json:"question"`
	Options  map[string]string `json:"options"`
	Answer   string            `json:"answer"`
	Analysis string            `json:"analysis"`
}

type examCaseRecord struct {
	Year         int                     `json:"year"`
	Subject      string                  `json:"subject"`
	CaseNumber   int                     `json:"case_number"`
	Title        string                  `json:"title"`
	Background   string                  `json:"background"`
	Score        int                     `json:"score"`
	SubQuestions []examSubQuestionRecord `json:"sub_questions"`
}

type examSubQuestionRecord struct {
	SubNumber int    `json:"sub_number"`
	Question  string `json:"question"`
	Answer    string `json:"answer"`
	Analysis  string `json:"analysis"`
}

func runImportExams(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	zlog, err := logger.New(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer zlog.Sync()

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read %q: %w", args[0], err)
	}

	var bank examBankFile
	if err := json.Unmarshal(data, &bank); err != nil {
		return fmt.Errorf("failed to parse exam bank file: %w", err)
	}

	questions := make([]domain.StoredQuestion, 0, len(bank.Questions))
	for i, rec := range bank.Questions {
		subject, err := domain.ParseSubject(rec.Subject)
		if err != nil {
			return fmt.Errorf("question %d: %w", i, err)
		}
		questions = append(questions, domain.StoredQuestion{
			Year:     rec.Year,
			Subject:  subject,
			Number:   rec.Number,
			Type:     rec.Type,
			Question: rec.Question,
			Options:  rec.Options,
			Answer:   rec.Answer,
			Analysis: rec.Analysis,
		})
	}

	cases := make([]domain.StoredCase, 0, len(bank.Cases))
	for i, rec := range bank.Cases {
		subject, err := domain.ParseSubject(rec.Subject)
		if err != nil {
			return fmt.Errorf("case %d: %w", i, err)
		}
		subs := make([]domain.StoredSubQuestion, len(rec.SubQuestions))
		for j, sq := range rec.SubQuestions {
			subs[j] = domain.StoredSubQuestion{
				SubNumber: sq.SubNumber,
				Question:  sq.Question,
				Answer:    sq.Answer,
				Analysis:  sq.Analysis,
			}
		}
		cases = append(cases, domain.StoredCase{
			Year:         rec.Year,
			Subject:      subject,
			CaseNumber:   rec.CaseNumber,
			Title:        rec.Title,
			Background:   rec.Background,
			Score:        rec.Score,
			SubQuestions: subs,
		})
	}

	pool, err := database.NewPool(ctx, database.Config{URL: cfg.DatabaseURL})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	examRepo := repository.NewExamRepository(pool)

	insertedQ, err := examRepo.ImportQuestions(ctx, questions)
	if err != nil {
		return fmt.Errorf("failed to import questions: %w", err)
	}

	insertedC, err := examRepo.ImportCases(ctx, cases)
	if err != nil {
		return fmt.Errorf("failed to import cases: %w", err)
	}

	zlog.Info("exam import complete",
		zap.Int("questions_in_file", len(questions)),
		zap.Int("questions_inserted", insertedQ),
		zap.Int("cases_in_file", len(cases)),
		zap.Int("cases_inserted", insertedC),
	)
	return nil
}
