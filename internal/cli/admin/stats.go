package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/prepstack/examtutor/internal/config"
	"github.com/prepstack/examtutor/internal/database"
	"github.com/prepstack/examtutor/internal/domain"
	"github.com/prepstack/examtutor/internal/repository"
)

// StatsCmd returns the stats command
func StatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print corpus and exam bank statistics",
		RunE:  runStats,
	}
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	pool, err := database.NewPool(ctx, database.Config{URL: cfg.DatabaseURL})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	corpusStats, err := repository.NewChunkRepository(pool).Stats(ctx)
	if err != nil {
		return fmt.Errorf("failed to read corpus stats: %w", err)
	}

	examStats, err := repository.NewExamRepository(pool).Stats(ctx)
	if err != nil {
		return fmt.Errorf("failed to read exam stats: %w", err)
	}

	out := struct {
		Corpus domain.CorpusStats `json:"corpus"`
		Exams  domain.ExamStats   `json:"exams"`
	}{
		Corpus: corpusStats,
		Exams:  examStats,
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
