package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/prepstack/examtutor/internal/api"
	"github.com/prepstack/examtutor/internal/domain"
	"github.com/prepstack/examtutor/internal/repository"
)

type ExamBank interface {
	ListQuestions(ctx context.Context, filter repository.QuestionFilter) (*repository.QuestionPage, error)
	SearchQuestions(ctx context.Context, keyword string, filter repository.QuestionFilter) ([]domain.StoredQuestion, error)
	ListCases(ctx context.Context, filter repository.CaseFilter) (*repository.CasePage, error)
	Stats(ctx context.Context) (domain.ExamStats, error)
}

type ExamHandler struct {
	bank ExamBank
}

func NewExamHandler(bank ExamBank) *ExamHandler {
	return &ExamHandler{bank: bank}
}

type QuestionResponse struct {
	ID       int64             `json:"id"`
	Year     int               `json:"year"`
	Subject  domain.Subject    `json:"subject"`
	Number   int               `json:"number"`
	Type     string            `json:"type"`
	Question string            `json:"question"`
	Options  map[string]string `json:"options"`
	Answer   string            `json:"answer,omitempty"`
	Analysis string            `json:"analysis,omitempty"`
}

type QuestionPageResponse struct {
	Items    []QuestionResponse `json:"items"`
	Total    int                `json:"total"`
	Page     int                `json:"page"`
	PageSize int                `json:"page_size"`
}

type SubQuestionResponse struct {
	SubNumber int    `json:"sub_number"`
	Question  string `json:"question"`
	Answer    string `json:"answer,omitempty"`
	Analysis  string `json:"analysis,omitempty"`
}

type CaseResponse struct {
	ID           int64                 `json:"id"`
	Year         int                   `json:"year"`
	Subject      domain.Subject        `json:"subject"`
	CaseNumber   int                   `json:"case_number"`
	Title        string                `json:"title"`
	Background   string                `json:"background"`
	Score        int                   `json:"score"`
	SubQuestions []SubQuestionResponse `json:"sub_questions"`
}

type CasePageResponse struct {
	Items    []CaseResponse `json:"items"`
	Total    int            `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
}

func questionToResponse(q domain.StoredQuestion) QuestionResponse {
	return QuestionResponse{
		ID:       q.ID,
		Year:     q.Year,
		Subject:  q.Subject,
		Number:   q.Number,
		Type:     q.Type,
		Question: q.Question,
		Options:  q.Options,
		Answer:   q.Answer,
		Analysis: q.Analysis,
	}
}

func caseToResponse(c domain.StoredCase) CaseResponse {
	subs := make([]SubQuestionResponse, len(c.SubQuestions))
	for i, sq := range c.SubQuestions {
		subs[i] = SubQuestionResponse{
			SubNumber: sq.SubNumber,
			Question:  sq.Question,
			Answer:    sq.Answer,
			Analysis:  sq.Analysis,
		}
	}
	return CaseResponse{
		ID:           c.ID,
		Year:         c.Year,
		Subject:      c.Subject,
		CaseNumber:   c.CaseNumber,
		Title:        c.Title,
		Background:   c.Background,
		Score:        c.Score,
		SubQuestions: subs,
	}
}

func (h *ExamHandler) ListQuestions(w http.ResponseWriter, r *http.Request) {
	filter, err := questionFilterFromQuery(r)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	page, err := h.bank.ListQuestions(r.Context(), filter)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	items := make([]QuestionResponse, len(page.Items))
	for i, q := range page.Items {
		items[i] = questionToResponse(q)
	}

	api.Success(w, http.StatusOK, QuestionPageResponse{
		Items:    items,
		Total:    page.Total,
		Page:     page.Page,
		PageSize: page.PageSize,
	})
}

func (h *ExamHandler) ListCases(w http.ResponseWriter, r *http.Request) {
	subjectFilter, err := subjectFromQuery(r)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	filter := repository.CaseFilter{
		Subject:  subjectFilter,
		Year:     intQueryParam(r, "year"),
		Page:     intQueryParam(r, "page"),
		PageSize: intQueryParam(r, "page_size"),
	}

	page, err := h.bank.ListCases(r.Context(), filter)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	items := make([]CaseResponse, len(page.Items))
	for i, c := range page.Items {
		items[i] = caseToResponse(c)
	}

	api.Success(w, http.StatusOK, CasePageResponse{
		Items:    items,
		Total:    page.Total,
		Page:     page.Page,
		PageSize: page.PageSize,
	})
}

type ExamSearchRequest struct {
	Keyword string `json:"keyword"`
	Subject string `json:"subject,omitempty"`
	Year    int    `json:"year,omitempty"`
	Type    string `json:"type,omitempty"`
}

func (h *ExamHandler) SearchQuestions(w http.ResponseWriter, r *http.Request) {
	var req ExamSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(req.Keyword) == "" {
		api.Error(w, http.StatusBadRequest, "keyword is required")
		return
	}

	filter := repository.QuestionFilter{Year: req.Year, Type: req.Type}
	if req.Subject != "" {
		subject, err := domain.ParseSubject(req.Subject)
		if err != nil {
			api.HandleError(w, err)
			return
		}
		filter.Subject = &subject
	}

	questions, err := h.bank.SearchQuestions(r.Context(), req.Keyword, filter)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	items := make([]QuestionResponse, len(questions))
	for i, q := range questions {
		items[i] = questionToResponse(q)
	}

	api.Success(w, http.StatusOK, map[string][]QuestionResponse{"items": items})
}

type ExamStatsResponse struct {
	TotalQuestions int                    `json:"total_questions"`
	TotalCases     int                    `json:"total_cases"`
	TotalSubQs     int                    `json:"total_sub_questions"`
	BySubject      map[domain.Subject]int `json:"by_subject"`
	ByYear         map[int]int            `json:"by_year"`
	ByType         map[string]int         `json:"by_type"`
}

func (h *ExamHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.bank.Stats(r.Context())
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, ExamStatsResponse{
		TotalQuestions: stats.TotalQuestions,
		TotalCases:     stats.TotalCases,
		TotalSubQs:     stats.TotalSubQs,
		BySubject:      stats.BySubject,
		ByYear:         stats.ByYear,
		ByType:         stats.ByType,
	})
}

func questionFilterFromQuery(r *http.Request) (repository.QuestionFilter, error) {
	subjectFilter, err := subjectFromQuery(r)
	if err != nil {
		return repository.QuestionFilter{}, err
	}

	return repository.QuestionFilter{
		Subject:  subjectFilter,
		Year:     intQueryParam(r, "year"),
		Type:     r.URL.Query().Get("type"),
		Page:     intQueryParam(r, "page"),
		PageSize: intQueryParam(r, "page_size"),
	}, nil
}

func subjectFromQuery(r *http.Request) (*domain.Subject, error) {
	raw := r.URL.Query().Get("subject")
	if raw == "" {
		return nil, nil
	}
	subject, err := domain.ParseSubject(raw)
	if err != nil {
		return nil, err
	}
	return &subject, nil
}

func intQueryParam(r *http.Request, name string) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
