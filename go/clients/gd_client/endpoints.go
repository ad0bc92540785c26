package gd_client

const (
	// Base path for the GD assessment API; the full URL comes from config.
	DefaultBasePath = "/api/gd"

	// Admin endpoints
	qrPath        = "/admin/qr"
	qrManagePath  = "/admin/qr/manage"
	qrHistoryPath = "/admin/qr/history"

	// Student session endpoints
	sessionPhasePath         = "/student/session/phase"
	sessionPhaseCompletePath = "/student/session/phase/complete"
	sessionTimerPath         = "/student/session/timer"
	sessionTimerStartPath    = "/student/session/timer/start"
	sessionRulesPath         = "/student/session/rules"
	participantsPath         = "/student/session/participants"
	readyPath                = "/student/session/ready"
	readyStatusPath          = "/student/session/ready-status"
	checkAllReadyPath        = "/student/session/check-all-ready"

	// Student survey endpoints
	questionsPath          = "/student/questions"
	surveyPath             = "/student/survey"
	surveyStartQuestion    = "/student/survey/start-question"
	surveyCheckTimeout     = "/student/survey/check-timeout"
	surveyApplyPenalty     = "/student/survey/apply-penalty"
	surveyMarkCompleted    = "/student/survey/mark-completed"
	surveyCompletionStatus = "/student/survey/completion"
)
