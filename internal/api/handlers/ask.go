package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/prepstack/examtutor/internal/api"
	"github.com/prepstack/examtutor/internal/domain"
)

type AnswerEngine interface {
	Ask(ctx context.Context, query string, subjectFilter *domain.Subject) (domain.AskResult, error)
	AnalyzeExamItem(ctx context.Context, item domain.ExamItem, subject domain.Subject) (domain.AnalysisResult, error)
}

type AskHandler struct {
	engine AnswerEngine
}

func NewAskHandler(engine AnswerEngine) *AskHandler {
	return &AskHandler{engine: engine}
}

type AskRequest struct {
	Question string `json:"question"`
	Subject  string `json:"subject,omitempty"`
}

type AskResponse struct {
	Answer  string             `json:"answer"`
	Sources []domain.SourceRef `json:"sources"`
}

func (h *AskHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(req.Question) == "" {
		api.HandleError(w, domain.ErrEmptyQuery)
		return
	}

	var subjectFilter *domain.Subject
	if req.Subject != "" {
		subject, err := domain.ParseSubject(req.Subject)
		if err != nil {
			api.HandleError(w, err)
			return
		}
		subjectFilter = &subject
	}

	result, err := h.engine.Ask(r.Context(), req.Question, subjectFilter)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, AskResponse{
		Answer:  result.Answer,
		Sources: result.Sources,
	})
}

type ExamAnalysisRequest struct {
	Subject      string            `json:"subject"`
	Question     string            `json:"question,omitempty"`
	Options      map[string]string `json:"options,omitempty"`
	Answer       string            `json:"answer,omitempty"`
	Background   string            `json:"background,omitempty"`
	SubQuestions []string          `json:"sub_questions,omitempty"`
}

type ExamAnalysisResponse struct {
	Analysis string             `json:"analysis"`
	Sources  []domain.SourceRef `json:"sources"`
}

// AnalyzeExamItem accepts either a choice question (question plus optional
// options and answer) or a case study (background plus sub_questions).
func (h *AskHandler) AnalyzeExamItem(w http.ResponseWriter, r *http.Request) {
	var req ExamAnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	subject, err := domain.ParseSubject(req.Subject)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	item, err := examItemFromRequest(req)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	result, err := h.engine.AnalyzeExamItem(r.Context(), item, subject)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, ExamAnalysisResponse{
		Analysis: result.Analysis,
		Sources:  result.Sources,
	})
}

func examItemFromRequest(req ExamAnalysisRequest) (domain.ExamItem, error) {
	hasQuestion := strings.TrimSpace(req.Question) != ""
	hasCase := strings.TrimSpace(req.Background) != "" || len(req.SubQuestions) > 0

	switch {
	case hasQuestion && hasCase:
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "provide either question or background, not both")
	case hasQuestion:
		return domain.ChoiceQuestion{
			Question: req.Question,
			Options:  req.Options,
			Answer:   req.Answer,
		}, nil
	case hasCase:
		return domain.CaseStudy{
			Background:   req.Background,
			SubQuestions: req.SubQuestions,
		}, nil
	default:
		return nil, domain.ErrEmptyQuery
	}
}
