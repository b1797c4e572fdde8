package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware" // Alias to avoid conflict
	"github.com/go-chi/cors"
	"github.com/playverse/contest-system/handlers"
	"github.com/playverse/contest-system/middleware"
	"github.com/playverse/contest-system/models"
)

func SetupRoutes(
	router *chi.Mux,
	jwtSecret string,
	authHandler *handlers.AuthHandler,
	contestHandler *handlers.ContestHandler,
	rosterHandler *handlers.RosterHandler,
	resultHandler *handlers.ResultHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Post("/auth/register", authHandler.Register)
	router.Post("/auth/login", authHandler.Login)

	router.Route("/contests", func(r chi.Router) {
		// Публичные маршруты для просмотра контестов
		r.Get("/", contestHandler.ListContestsHandler)
		r.Get("/{contestID}", contestHandler.GetContestHandler)
		r.Get("/{contestID}/teams", rosterHandler.ListTeamsHandler)
		r.Get("/{contestID}/players", rosterHandler.ListPlayersHandler)
		r.Get("/{contestID}/results", resultHandler.GetResultsHandler)

		// Защищённые маршруты для операторов и администраторов
		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(jwtSecret))
			r.Use(middleware.Authorize(models.RoleAdmin, models.RoleOperator))

			r.Get("/{contestID}/slate", resultHandler.GetSlateHandler)
			r.Put("/{contestID}/slate", resultHandler.SaveSlateHandler)
			r.Get("/{contestID}/candidates", resultHandler.CandidatesHandler)
			r.Post("/{contestID}/declare", resultHandler.DeclareHandler)
		})

		// Управление контестами доступно только администраторам
		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(jwtSecret))
			r.Use(middleware.Authorize(models.RoleAdmin))

			r.Post("/", contestHandler.CreateContestHandler)
			r.Delete("/{contestID}", contestHandler.DeleteContestHandler)
			r.Put("/{contestID}/status", contestHandler.UpdateContestStatusHandler)
			r.Post("/{contestID}/banner", contestHandler.UploadBannerHandler)
			r.Post("/{contestID}/teams", rosterHandler.AddTeamHandler)
			r.Delete("/teams/{teamID}", rosterHandler.RemoveTeamHandler)
		})
	})

	router.Get("/ws/contests/{contestID}", webSocketHandler.ServeWs)
}
