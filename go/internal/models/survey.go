package models

// Question is one peer-evaluation criterion presented during the survey.
type Question struct {
	ID     string  `json:"id"`
	Text   string  `json:"text"`
	Weight float64 `json:"weight"`
}

// SurveySubmission is the payload posted to the survey endpoint. Responses
// map question number (1-based, in the participant's shuffled order) to a
// rank-to-member assignment.
type SurveySubmission struct {
	SessionID string                 `json:"session_id"`
	Responses map[int]map[int]string `json:"responses"`
	IsPartial bool                   `json:"is_partial"`
	IsFinal   bool                   `json:"is_final"`
}

// DefaultQuestions is the fallback criterion set used when the question
// endpoint is unreachable, mirroring what the backend seeds for level 1.
func DefaultQuestions() []Question {
	return []Question{
		{ID: "q1", Text: "Clarity of arguments", Weight: 1.0},
		{ID: "q2", Text: "Contribution to discussion", Weight: 1.0},
		{ID: "q3", Text: "Teamwork and collaboration", Weight: 1.0},
	}
}
