package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/greenlean/greenlean/app/repository"
	apiv1 "github.com/greenlean/greenlean/internal/api/v1"
	"github.com/greenlean/greenlean/internal/pkg/constants"
	"github.com/greenlean/greenlean/internal/pkg/jobqueue"
	"github.com/greenlean/greenlean/internal/pkg/middleware"
)

type ApiRouter struct {
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group(constants.APIRoute, limiter.New())
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	// API v1 routes
	v1 := api.Group(constants.APIv1Route)
	apiServer := apiv1.NewAPIServer(repository.GetGlobalRepositories(), jobqueue.GetManager())

	v1.Get(constants.PingRoute, apiServer.GetPing)

	// Everything below requires an API key.
	authed := v1.Group("", middleware.APIKeyAuthMiddleware())
	authed.Post(constants.SurveyCheckRoute, apiServer.PostSurveyCheck)
	authed.Get(constants.SurveyNextRoute, apiServer.GetSurveyNext)
	authed.Post(constants.SurveyResponseRoute, apiServer.PostSurveyResponse)
	authed.Get(constants.SurveyResponseRoute, apiServer.GetSurveyResponses)
	authed.Post(constants.SurveyDismissRoute, apiServer.PostSurveyDismiss)
	authed.Get(constants.UnlocksPendingRoute, apiServer.GetUnlocksPending)
	authed.Post(constants.UnlockResolveRoute, apiServer.PostUnlockResolve)
	authed.Post(constants.PlanGenerateRoute, apiServer.PostPlanGenerate)
	authed.Get(constants.PlanStatusRoute, apiServer.GetPlanStatus)
	authed.Get(constants.ProfileCompletenessRoute, apiServer.GetProfileCompleteness)
}
