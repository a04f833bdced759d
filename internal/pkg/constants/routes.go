package constants

// API route constants
const (
	APIRoute   = "/api"
	APIv1Route = "/v1"

	PingRoute = "/ping"

	SurveyCheckRoute    = "/surveys/check"
	SurveyNextRoute     = "/surveys/next"
	SurveyResponseRoute = "/surveys/responses"
	SurveyDismissRoute  = "/surveys/dismiss"

	UnlocksPendingRoute = "/unlocks/pending"
	UnlockResolveRoute  = "/unlocks/:id/resolve"

	PlanGenerateRoute = "/plans/generate"
	PlanStatusRoute   = "/plans/:type/status"

	ProfileCompletenessRoute = "/profile/completeness"
)
