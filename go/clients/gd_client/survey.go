package gd_client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/gdsync/go/clients"
	"github.com/mcdev12/gdsync/go/internal/models"
)

// QuestionTimeoutResponse is GET /student/survey/check-timeout. When the
// endpoint fails the client substitutes the permissive defaults the survey
// flow expects, so a flaky timer service never blocks a participant.
type QuestionTimeoutResponse struct {
	RemainingSeconds int  `json:"remaining_seconds"`
	IsTimedOut       bool `json:"is_timed_out"`
}

// CompletionResponse is GET /student/survey/completion.
type CompletionResponse struct {
	AllCompleted  bool `json:"all_completed"`
	Completed     int  `json:"completed"`
	Total         int  `json:"total"`
	SessionActive bool `json:"session_active"`
}

// SurveyQuestions fetches the evaluation criteria for a level. Empty or
// failed responses fall back to the default question set client-side.
func (c *GDClient) SurveyQuestions(ctx context.Context, level int, sessionID string) ([]models.Question, error) {
	query := url.Values{}
	query.Set("level", strconv.Itoa(level))
	if sessionID != "" {
		query.Set("session_id", sessionID)
	}

	body, err := c.Get(ctx, questionsPath, query)
	if err != nil {
		return nil, err
	}
	return clients.DecodeList[models.Question](body)
}

func (c *GDClient) SubmitSurvey(ctx context.Context, submission models.SurveySubmission) error {
	return c.postJSON(ctx, surveyPath, submission, nil)
}

// StartQuestionTimer starts the server-side countdown for one question.
// Failures are logged and swallowed; the survey runs its local countdown
// regardless.
func (c *GDClient) StartQuestionTimer(ctx context.Context, sessionID string, questionNumber int) {
	payload := map[string]any{
		"session_id":  sessionID,
		"question_id": questionNumber,
	}
	if err := c.postJSON(ctx, surveyStartQuestion, payload, nil); err != nil {
		log.Debug().Err(err).
			Str("session_id", sessionID).
			Int("question", questionNumber).
			Msg("question timer start failed, continuing with local countdown")
	}
}

func (c *GDClient) CheckQuestionTimeout(ctx context.Context, sessionID string, questionNumber int) QuestionTimeoutResponse {
	fallback := QuestionTimeoutResponse{RemainingSeconds: 30, IsTimedOut: false}

	query := url.Values{}
	query.Set("session_id", sessionID)
	query.Set("question_id", strconv.Itoa(questionNumber))

	body, err := c.Get(ctx, surveyCheckTimeout, query)
	if err != nil {
		return fallback
	}
	raw, err := clients.NormalizeObject(body)
	if err != nil {
		return fallback
	}
	var resp QuestionTimeoutResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return fallback
	}
	return resp
}

func (c *GDClient) ApplyQuestionPenalty(ctx context.Context, sessionID string, questionNumber int, studentID string) error {
	payload := map[string]any{
		"session_id":  sessionID,
		"question_id": questionNumber,
		"student_id":  studentID,
	}
	return c.postJSON(ctx, surveyApplyPenalty, payload, nil)
}

func (c *GDClient) MarkSurveyCompleted(ctx context.Context, sessionID string) error {
	payload := map[string]any{"session_id": sessionID}
	return c.postJSON(ctx, surveyMarkCompleted, payload, nil)
}

func (c *GDClient) CheckSurveyCompletion(ctx context.Context, sessionID string) (*CompletionResponse, error) {
	query := url.Values{}
	query.Set("session_id", sessionID)

	body, err := c.Get(ctx, surveyCompletionStatus, query)
	if err != nil {
		return nil, err
	}
	raw, err := clients.NormalizeObject(body)
	if err != nil {
		return nil, err
	}
	var resp CompletionResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse completion response: %w", err)
	}
	return &resp, nil
}
