package survey

import (
	"context"
	"errors"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/gdsync/go/clients/gd_client"
	"github.com/mcdev12/gdsync/go/internal/models"
)

// API is what the survey flow needs from the GD backend client.
type API interface {
	SurveyQuestions(ctx context.Context, level int, sessionID string) ([]models.Question, error)
	SubmitSurvey(ctx context.Context, submission models.SurveySubmission) error
	StartQuestionTimer(ctx context.Context, sessionID string, questionNumber int)
	CheckQuestionTimeout(ctx context.Context, sessionID string, questionNumber int) gd_client.QuestionTimeoutResponse
	ApplyQuestionPenalty(ctx context.Context, sessionID string, questionNumber int, studentID string) error
	MarkSurveyCompleted(ctx context.Context, sessionID string) error
}

var (
	// ErrTimerRunning is returned when a question is confirmed before its
	// countdown has completed.
	ErrTimerRunning = errors.New("question timer still running")

	// ErrEmptyRanking is returned when a question is confirmed with no
	// selections and no acknowledged penalty.
	ErrEmptyRanking = errors.New("no rankings selected for question")

	// ErrSurveyFinished is returned for operations after the last question.
	ErrSurveyFinished = errors.New("survey already finished")
)

// RunnerConfig holds the dependencies for a survey run.
type RunnerConfig struct {
	API       API
	SessionID string
	UserID    string
	Level     int
	Clock     clockwork.Clock

	// QuestionTime is the per-question countdown. Defaults to 30s.
	QuestionTime time.Duration
}

const defaultQuestionTime = 30 * time.Second

// Runner walks a participant through the peer-evaluation survey: questions
// in the participant's seeded order, one 30s countdown per question, one
// partial submission per confirmed question and a final flag on the last.
type Runner struct {
	api          API
	sessionID    string
	userID       string
	level        int
	clock        clockwork.Clock
	questionTime time.Duration

	questions   []models.Question
	index       int
	rankings    map[int]*Ranking
	penalties   map[int]bool
	questionEnd time.Time
	finished    bool
}

func NewRunner(cfg *RunnerConfig) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if cfg.API == nil {
		return nil, errors.New("api client cannot be nil")
	}
	if cfg.SessionID == "" {
		return nil, errors.New("session id is required")
	}
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	questionTime := cfg.QuestionTime
	if questionTime <= 0 {
		questionTime = defaultQuestionTime
	}
	return &Runner{
		api:          cfg.API,
		sessionID:    cfg.SessionID,
		userID:       cfg.UserID,
		level:        cfg.Level,
		clock:        clock,
		questionTime: questionTime,
		rankings:     make(map[int]*Ranking),
		penalties:    make(map[int]bool),
	}, nil
}

// Begin fetches and shuffles the questions and starts the first question's
// countdown. An unreachable question endpoint falls back to the default
// criterion set; the survey itself must never be blocked.
func (r *Runner) Begin(ctx context.Context) error {
	questions, err := r.api.SurveyQuestions(ctx, r.level, r.sessionID)
	if err != nil || len(questions) == 0 {
		if err != nil {
			log.Warn().Err(err).Str("session_id", r.sessionID).Msg("question fetch failed, using defaults")
		}
		questions = models.DefaultQuestions()
	}

	r.questions = Shuffle(questions, Seed(r.userID, r.sessionID))
	r.index = 0
	r.finished = false
	r.startQuestion(ctx)

	log.Info().
		Str("session_id", r.sessionID).
		Int("questions", len(r.questions)).
		Msg("survey started")
	return nil
}

func (r *Runner) startQuestion(ctx context.Context) {
	r.api.StartQuestionTimer(ctx, r.sessionID, r.index+1)
	r.questionEnd = r.clock.Now().Add(r.questionTime)
}

// Current returns the active question and its zero-based position.
func (r *Runner) Current() (models.Question, int) {
	if r.index >= len(r.questions) {
		return models.Question{}, r.index
	}
	return r.questions[r.index], r.index
}

// Ranking returns the active question's ranking, creating it on first use.
func (r *Runner) Ranking() *Ranking {
	ranking, ok := r.rankings[r.index]
	if !ok {
		ranking = NewRanking()
		r.rankings[r.index] = ranking
	}
	return ranking
}

// Remaining is the local countdown for the active question.
func (r *Runner) Remaining() int {
	if r.questionEnd.IsZero() {
		return 0
	}
	rem := r.questionEnd.Sub(r.clock.Now())
	if rem <= 0 {
		return 0
	}
	return int(rem.Round(time.Second).Seconds())
}

// TimedOut checks the server's view of the question countdown, falling
// back to the local one when the endpoint is unavailable.
func (r *Runner) TimedOut(ctx context.Context) bool {
	resp := r.api.CheckQuestionTimeout(ctx, r.sessionID, r.index+1)
	if resp.IsTimedOut {
		return true
	}
	return r.Remaining() == 0
}

// AcceptPenalty acknowledges proceeding without selections; the penalty is
// recorded server-side against this participant.
func (r *Runner) AcceptPenalty(ctx context.Context) error {
	if r.finished {
		return ErrSurveyFinished
	}
	if err := r.api.ApplyQuestionPenalty(ctx, r.sessionID, r.index+1, r.userID); err != nil {
		return err
	}
	r.penalties[r.index] = true
	return nil
}

// Confirm submits the active question and advances. It refuses to move on
// while the countdown is running, and an empty ranking needs an explicit
// AcceptPenalty first.
func (r *Runner) Confirm(ctx context.Context) error {
	if r.finished {
		return ErrSurveyFinished
	}
	if r.Remaining() > 0 {
		return ErrTimerRunning
	}

	ranking := r.Ranking()
	if ranking.Empty() && !r.penalties[r.index] {
		return ErrEmptyRanking
	}

	isLast := r.index == len(r.questions)-1
	if !ranking.Empty() {
		submission := models.SurveySubmission{
			SessionID: r.sessionID,
			Responses: map[int]map[int]string{
				r.index + 1: ranking.Selections(),
			},
			IsPartial: !isLast,
			IsFinal:   isLast,
		}
		if err := r.api.SubmitSurvey(ctx, submission); err != nil {
			return err
		}
	}

	if isLast {
		r.finished = true
		if err := r.api.MarkSurveyCompleted(ctx, r.sessionID); err != nil {
			// Completion marking is best-effort; results calculation
			// reconciles stragglers server-side.
			log.Warn().Err(err).Str("session_id", r.sessionID).Msg("failed to mark survey completed")
		}
		log.Info().Str("session_id", r.sessionID).Msg("survey finished")
		return nil
	}

	r.index++
	r.startQuestion(ctx)
	return nil
}

// Finished reports whether the last question has been confirmed.
func (r *Runner) Finished() bool {
	return r.finished
}

// Questions returns the participant's shuffled question order.
func (r *Runner) Questions() []models.Question {
	return append([]models.Question(nil), r.questions...)
}
