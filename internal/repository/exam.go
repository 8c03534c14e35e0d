package repository

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/prepstack/examtutor/internal/domain"
)

// QuestionFilter narrows question listings and searches.
type QuestionFilter struct {
	Subject  *domain.Subject
	Year     int
	Type     string
	Page     int
	PageSize int
}

// CaseFilter narrows case-study listings.
type CaseFilter struct {
	Subject  *domain.Subject
	Year     int
	Page     int
	PageSize int
}

// QuestionPage is one page of questions plus the unfiltered total.
type QuestionPage struct {
	Items    []domain.StoredQuestion
	Total    int
	Page     int
	PageSize int
}

// CasePage is one page of case studies plus the total.
type CasePage struct {
	Items    []domain.StoredCase
	Total    int
	Page     int
	PageSize int
}

// ExamRepository stores the historical question bank: choice questions with
// their options, and case studies with their ordered sub-questions.
type ExamRepository struct {
	db dbtx
}

func NewExamRepository(pool *pgxpool.Pool) *ExamRepository {
	return &ExamRepository{db: pool}
}

// ImportQuestions inserts questions, skipping rows that collide on
// (year, subject, number). Returns the number of rows inserted.
func (r *ExamRepository) ImportQuestions(ctx context.Context, questions []domain.StoredQuestion) (int, error) {
	imported := 0
	for _, q := range questions {
		var id int64
		err := r.db.QueryRow(ctx,
			`INSERT INTO exam_questions (year, subject, number, type, question, answer, analysis)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 ON CONFLICT (year, subject, number) DO NOTHING
			 RETURNING id`,
			q.Year, string(q.Subject), q.Number, q.Type, q.Question, nullableString(q.Answer), nullableString(q.Analysis),
		).Scan(&id)
		if err != nil {
			// No row returned means the question already existed.
			if errors.Is(err, pgx.ErrNoRows) {
				continue
			}
			return imported, err
		}

		for label, text := range q.Options {
			if _, err := r.db.Exec(ctx,
				`INSERT INTO exam_options (question_id, option_key, option_value)
				 VALUES ($1, $2, $3)
				 ON CONFLICT (question_id, option_key) DO NOTHING`,
				id, label, text,
			); err != nil {
				return imported, err
			}
		}
		imported++
	}
	return imported, nil
}

// ImportCases inserts case studies with their sub-questions, skipping
// duplicates on (year, subject, case_number).
func (r *ExamRepository) ImportCases(ctx context.Context, cases []domain.StoredCase) (int, error) {
	imported := 0
	for _, c := range cases {
		var id int64
		err := r.db.QueryRow(ctx,
			`INSERT INTO exam_cases (year, subject, case_number, title, background, score)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 ON CONFLICT (year, subject, case_number) DO NOTHING
			 RETURNING id`,
			c.Year, string(c.Subject), c.CaseNumber, c.Title, c.Background, c.Score,
		).Scan(&id)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				continue
			}
			return imported, err
		}

		for _, sub := range c.SubQuestions {
			if _, err := r.db.Exec(ctx,
				`INSERT INTO exam_case_questions (case_id, sub_number, question, answer, analysis)
				 VALUES ($1, $2, $3, $4, $5)
				 ON CONFLICT (case_id, sub_number) DO NOTHING`,
				id, sub.SubNumber, sub.Question, nullableString(sub.Answer), nullableString(sub.Analysis),
			); err != nil {
				return imported, err
			}
		}
		imported++
	}
	return imported, nil
}

// ListQuestions returns one page of questions ordered by year, subject and
// number, with options attached.
func (r *ExamRepository) ListQuestions(ctx context.Context, filter QuestionFilter) (*QuestionPage, error) {
	page, pageSize := normalizePage(filter.Page, filter.PageSize, 20)

	where, args := questionWhere(filter)

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM exam_questions`+where, args...).Scan(&total); err != nil {
		return nil, err
	}

	query := `SELECT id, year, subject, number, type, question, COALESCE(answer, ''), COALESCE(analysis, ''), created_at
		 FROM exam_questions` + where +
		` ORDER BY year DESC, subject, number
		 LIMIT $` + strconv.Itoa(len(args)+1) + ` OFFSET $` + strconv.Itoa(len(args)+2)
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items, err := scanQuestionRows(rows)
	if err != nil {
		return nil, err
	}

	if err := r.attachOptions(ctx, items); err != nil {
		return nil, err
	}

	return &QuestionPage{Items: items, Total: total, Page: page, PageSize: pageSize}, nil
}

// SearchQuestions finds questions whose text matches the keyword.
func (r *ExamRepository) SearchQuestions(ctx context.Context, keyword string, filter QuestionFilter) ([]domain.StoredQuestion, error) {
	limit := filter.PageSize
	if limit <= 0 {
		limit = 20
	}

	where, args := questionWhere(filter)
	if where == "" {
		where = ` WHERE question ILIKE $1`
	} else {
		where += ` AND question ILIKE $` + strconv.Itoa(len(args)+1)
	}
	args = append(args, "%"+keyword+"%")

	query := `SELECT id, year, subject, number, type, question, COALESCE(answer, ''), COALESCE(analysis, ''), created_at
		 FROM exam_questions` + where +
		` ORDER BY year DESC, subject, number LIMIT $` + strconv.Itoa(len(args)+1)
	args = append(args, limit)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items, err := scanQuestionRows(rows)
	if err != nil {
		return nil, err
	}

	if err := r.attachOptions(ctx, items); err != nil {
		return nil, err
	}

	return items, nil
}

// ListCases returns one page of case studies with sub-questions attached.
func (r *ExamRepository) ListCases(ctx context.Context, filter CaseFilter) (*CasePage, error) {
	page, pageSize := normalizePage(filter.Page, filter.PageSize, 10)

	where := ""
	var args []any
	var conds []string
	if filter.Subject != nil {
		conds = append(conds, `subject = $`+strconv.Itoa(len(args)+1))
		args = append(args, string(*filter.Subject))
	}
	if filter.Year > 0 {
		conds = append(conds, `year = $`+strconv.Itoa(len(args)+1))
		args = append(args, filter.Year)
	}
	if len(conds) > 0 {
		where = ` WHERE ` + strings.Join(conds, ` AND `)
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM exam_cases`+where, args...).Scan(&total); err != nil {
		return nil, err
	}

	query := `SELECT id, year, subject, case_number, title, background, COALESCE(score, 0), created_at
		 FROM exam_cases` + where +
		` ORDER BY year DESC, subject, case_number
		 LIMIT $` + strconv.Itoa(len(args)+1) + ` OFFSET $` + strconv.Itoa(len(args)+2)
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.StoredCase
	for rows.Next() {
		var (
			c    domain.StoredCase
			subj string
		)
		if err := rows.Scan(&c.ID, &c.Year, &subj, &c.CaseNumber, &c.Title, &c.Background, &c.Score, &c.CreatedAt); err != nil {
			return nil, err
		}
		c.Subject = domain.Subject(subj)
		items = append(items, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range items {
		subs, err := r.listSubQuestions(ctx, items[i].ID)
		if err != nil {
			return nil, err
		}
		items[i].SubQuestions = subs
	}

	return &CasePage{Items: items, Total: total, Page: page, PageSize: pageSize}, nil
}

// Stats reports question-bank totals by subject, year, and question type.
func (r *ExamRepository) Stats(ctx context.Context) (domain.ExamStats, error) {
	stats := domain.ExamStats{
		BySubject: make(map[domain.Subject]int),
		ByYear:    make(map[int]int),
		ByType:    make(map[string]int),
	}

	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM exam_questions`).Scan(&stats.TotalQuestions); err != nil {
		return domain.ExamStats{}, err
	}
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM exam_cases`).Scan(&stats.TotalCases); err != nil {
		return domain.ExamStats{}, err
	}
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM exam_case_questions`).Scan(&stats.TotalSubQs); err != nil {
		return domain.ExamStats{}, err
	}

	rows, err := r.db.Query(ctx, `SELECT subject, COUNT(*) FROM exam_questions GROUP BY subject`)
	if err != nil {
		return domain.ExamStats{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			subj  string
			count int
		)
		if err := rows.Scan(&subj, &count); err != nil {
			return domain.ExamStats{}, err
		}
		stats.BySubject[domain.Subject(subj)] = count
	}
	if err := rows.Err(); err != nil {
		return domain.ExamStats{}, err
	}

	yearRows, err := r.db.Query(ctx, `SELECT year, COUNT(*) FROM exam_questions GROUP BY year`)
	if err != nil {
		return domain.ExamStats{}, err
	}
	defer yearRows.Close()
	for yearRows.Next() {
		var year, count int
		if err := yearRows.Scan(&year, &count); err != nil {
			return domain.ExamStats{}, err
		}
		stats.ByYear[year] = count
	}
	if err := yearRows.Err(); err != nil {
		return domain.ExamStats{}, err
	}

	typeRows, err := r.db.Query(ctx, `SELECT type, COUNT(*) FROM exam_questions GROUP BY type`)
	if err != nil {
		return domain.ExamStats{}, err
	}
	defer typeRows.Close()
	for typeRows.Next() {
		var (
			qtype string
			count int
		)
		if err := typeRows.Scan(&qtype, &count); err != nil {
			return domain.ExamStats{}, err
		}
		stats.ByType[qtype] = count
	}

	return stats, typeRows.Err()
}

func (r *ExamRepository) attachOptions(ctx context.Context, questions []domain.StoredQuestion) error {
	for i := range questions {
		rows, err := r.db.Query(ctx,
			`SELECT option_key, option_value FROM exam_options WHERE question_id = $1 ORDER BY option_key`,
			questions[i].ID,
		)
		if err != nil {
			return err
		}

		options := make(map[string]string)
		for rows.Next() {
			var key, value string
			if err := rows.Scan(&key, &value); err != nil {
				rows.Close()
				return err
			}
			options[key] = value
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}
		questions[i].Options = options
	}
	return nil
}

func (r *ExamRepository) listSubQuestions(ctx context.Context, caseID int64) ([]domain.StoredSubQuestion, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, sub_number, question, COALESCE(answer, ''), COALESCE(analysis, '')
		 FROM exam_case_questions
		 WHERE case_id = $1
		 ORDER BY sub_number`,
		caseID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []domain.StoredSubQuestion
	for rows.Next() {
		var sub domain.StoredSubQuestion
		if err := rows.Scan(&sub.ID, &sub.SubNumber, &sub.Question, &sub.Answer, &sub.Analysis); err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

func questionWhere(filter QuestionFilter) (string, []any) {
	var conds []string
	var args []any

	if filter.Subject != nil {
		conds = append(conds, `subject = $`+strconv.Itoa(len(args)+1))
		args = append(args, string(*filter.Subject))
	}
	if filter.Year > 0 {
		conds = append(conds, `year = $`+strconv.Itoa(len(args)+1))
		args = append(args, filter.Year)
	}
	if filter.Type != "" {
		conds = append(conds, `type = $`+strconv.Itoa(len(args)+1))
		args = append(args, filter.Type)
	}

	if len(conds) == 0 {
		return "", args
	}
	return ` WHERE ` + strings.Join(conds, ` AND `), args
}

func normalizePage(page, pageSize, defaultSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultSize
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}

func scanQuestionRows(rows pgx.Rows) ([]domain.StoredQuestion, error) {
	var items []domain.StoredQuestion
	for rows.Next() {
		var (
			q        domain.StoredQuestion
			subj     string
			answer   *string
			analysis *string
		)
		if err := rows.Scan(&q.ID, &q.Year, &subj, &q.Number, &q.Type, &q.Question, &answer, &analysis, &q.CreatedAt); err != nil {
			return nil, err
		}
		q.Subject = domain.Subject(subj)
		if answer != nil {
			q.Answer = *answer
		}
		if analysis != nil {
			q.Analysis = *analysis
		}
		items = append(items, q)
	}
	return items, rows.Err()
}
