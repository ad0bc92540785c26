package survey

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/suite"

	"github.com/mcdev12/gdsync/go/clients/gd_client"
	"github.com/mcdev12/gdsync/go/internal/models"
)

type fakeSurveyAPI struct {
	questions    []models.Question
	questionsErr error

	submissions []models.SurveySubmission
	submitErr   error

	timerStarts []int
	timeout     gd_client.QuestionTimeoutResponse

	penalties  []int
	penaltyErr error

	completed   bool
	completeErr error
}

func (f *fakeSurveyAPI) SurveyQuestions(ctx context.Context, level int, sessionID string) ([]models.Question, error) {
	return f.questions, f.questionsErr
}

func (f *fakeSurveyAPI) SubmitSurvey(ctx context.Context, submission models.SurveySubmission) error {
	if f.submitErr != nil {
		return f.submitErr
	}
	f.submissions = append(f.submissions, submission)
	return nil
}

func (f *fakeSurveyAPI) StartQuestionTimer(ctx context.Context, sessionID string, questionNumber int) {
	f.timerStarts = append(f.timerStarts, questionNumber)
}

func (f *fakeSurveyAPI) CheckQuestionTimeout(ctx context.Context, sessionID string, questionNumber int) gd_client.QuestionTimeoutResponse {
	return f.timeout
}

func (f *fakeSurveyAPI) ApplyQuestionPenalty(ctx context.Context, sessionID string, questionNumber int, studentID string) error {
	if f.penaltyErr != nil {
		return f.penaltyErr
	}
	f.penalties = append(f.penalties, questionNumber)
	return nil
}

func (f *fakeSurveyAPI) MarkSurveyCompleted(ctx context.Context, sessionID string) error {
	if f.completeErr != nil {
		return f.completeErr
	}
	f.completed = true
	return nil
}

type RunnerTestSuite struct {
	suite.Suite
	api    *fakeSurveyAPI
	clock  *clockwork.FakeClock
	runner *Runner
	ctx    context.Context
}

func (s *RunnerTestSuite) SetupTest() {
	s.api = &fakeSurveyAPI{
		questions: []models.Question{
			{ID: "1", Text: "Clarity of arguments"},
			{ID: "2", Text: "Contribution to discussion"},
			{ID: "3", Text: "Teamwork and collaboration"},
		},
		timeout: gd_client.QuestionTimeoutResponse{RemainingSeconds: 30},
	}
	s.clock = clockwork.NewFakeClock()
	s.ctx = context.Background()

	runner, err := NewRunner(&RunnerConfig{
		API:       s.api,
		SessionID: "sess-1",
		UserID:    "alice",
		Clock:     s.clock,
	})
	s.Require().NoError(err)
	s.runner = runner
}

func (s *RunnerTestSuite) confirmWithRanking(member string) {
	s.clock.Advance(31 * time.Second)
	s.Require().NoError(s.runner.Ranking().Assign(1, member))
	s.Require().NoError(s.runner.Confirm(s.ctx))
}

func (s *RunnerTestSuite) TestBeginShufflesPerParticipant() {
	s.Require().NoError(s.runner.Begin(s.ctx))

	// alice/sess-1 always sees the same order.
	s.Equal([]int{1, 3, 2}, idsOf(s.runner.Questions()))
	s.Equal([]int{1}, s.api.timerStarts)

	question, idx := s.runner.Current()
	s.Equal(0, idx)
	s.Equal("1", question.ID)
}

func (s *RunnerTestSuite) TestBeginFallsBackToDefaultQuestions() {
	s.api.questionsErr = errors.New("boom")

	s.Require().NoError(s.runner.Begin(s.ctx))
	s.Len(s.runner.Questions(), len(models.DefaultQuestions()))
}

func (s *RunnerTestSuite) TestConfirmRefusedWhileTimerRunning() {
	s.Require().NoError(s.runner.Begin(s.ctx))

	s.clock.Advance(10 * time.Second)
	s.Require().NoError(s.runner.Ranking().Assign(1, "bob"))
	s.ErrorIs(s.runner.Confirm(s.ctx), ErrTimerRunning)
	s.Equal(20, s.runner.Remaining())
}

func (s *RunnerTestSuite) TestConfirmEmptyRankingNeedsPenalty() {
	s.Require().NoError(s.runner.Begin(s.ctx))
	s.clock.Advance(31 * time.Second)

	s.ErrorIs(s.runner.Confirm(s.ctx), ErrEmptyRanking)

	s.Require().NoError(s.runner.AcceptPenalty(s.ctx))
	s.Require().NoError(s.runner.Confirm(s.ctx))

	s.Equal([]int{1}, s.api.penalties)
	s.Empty(s.api.submissions, "penalized question should not submit")
	_, idx := s.runner.Current()
	s.Equal(1, idx)
}

func (s *RunnerTestSuite) TestConfirmSubmitsPartialThenFinal() {
	s.Require().NoError(s.runner.Begin(s.ctx))

	s.confirmWithRanking("bob")
	s.confirmWithRanking("carol")
	s.confirmWithRanking("dave")

	s.Require().Len(s.api.submissions, 3)
	s.True(s.api.submissions[0].IsPartial)
	s.False(s.api.submissions[0].IsFinal)
	s.False(s.api.submissions[2].IsPartial)
	s.True(s.api.submissions[2].IsFinal)
	s.Equal(map[int]string{1: "bob"}, s.api.submissions[0].Responses[1])

	s.True(s.runner.Finished())
	s.True(s.api.completed)
	s.Equal([]int{1, 2, 3}, s.api.timerStarts)
}

func (s *RunnerTestSuite) TestConfirmAfterFinish() {
	s.Require().NoError(s.runner.Begin(s.ctx))
	s.confirmWithRanking("bob")
	s.confirmWithRanking("carol")
	s.confirmWithRanking("dave")

	s.ErrorIs(s.runner.Confirm(s.ctx), ErrSurveyFinished)
	s.ErrorIs(s.runner.AcceptPenalty(s.ctx), ErrSurveyFinished)
}

func (s *RunnerTestSuite) TestTimedOutPrefersServerVerdict() {
	s.Require().NoError(s.runner.Begin(s.ctx))

	s.api.timeout = gd_client.QuestionTimeoutResponse{IsTimedOut: true}
	s.True(s.runner.TimedOut(s.ctx), "server timeout wins over local countdown")

	s.api.timeout = gd_client.QuestionTimeoutResponse{RemainingSeconds: 30}
	s.False(s.runner.TimedOut(s.ctx))

	s.clock.Advance(31 * time.Second)
	s.True(s.runner.TimedOut(s.ctx), "local countdown is the offline fallback")
}

func (s *RunnerTestSuite) TestSubmitFailureDoesNotAdvance() {
	s.Require().NoError(s.runner.Begin(s.ctx))
	s.clock.Advance(31 * time.Second)
	s.Require().NoError(s.runner.Ranking().Assign(1, "bob"))

	s.api.submitErr = errors.New("boom")
	s.Error(s.runner.Confirm(s.ctx))

	_, idx := s.runner.Current()
	s.Equal(0, idx, "failed submission should keep the question open")
}

func TestRunnerTestSuite(t *testing.T) {
	suite.Run(t, new(RunnerTestSuite))
}
