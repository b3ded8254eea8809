package routes

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/oupafamilly/oupafamilly/handlers"
	"github.com/oupafamilly/oupafamilly/middleware"
	"github.com/oupafamilly/oupafamilly/models"
)

// SetupRoutes wires every API endpoint onto the router.
func SetupRoutes(
	router *chi.Mux,
	corsOrigins []string,
	auth *middleware.Authenticator,
	authHandler *handlers.AuthHandler,
	teamHandler *handlers.TeamHandler,
	tournamentHandler *handlers.TournamentHandler,
	matchHandler *handlers.MatchHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Logger)
	router.Use(chimiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)
			r.Get("/me", authHandler.Me)
		})
	})

	router.Route("/api/teams", func(r chi.Router) {
		r.Get("/", teamHandler.List)
		r.Get("/{teamID}", teamHandler.GetByID)

		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)

			r.Post("/", teamHandler.Create)
			r.Get("/mine", teamHandler.ListMine)
			r.Post("/{teamID}/join", teamHandler.Join)
			r.Post("/{teamID}/leave", teamHandler.Leave)
			r.Put("/{teamID}/captain", teamHandler.TransferCaptaincy)
			r.Post("/{teamID}/logo", teamHandler.UploadLogo)
		})
	})

	router.Route("/api/tournaments", func(r chi.Router) {
		r.Get("/", tournamentHandler.List)
		r.Get("/{tournamentID}", tournamentHandler.GetByID)
		r.Get("/{tournamentID}/participants-info", tournamentHandler.ParticipantsInfo)
		r.Get("/{tournamentID}/matches", matchHandler.ListByTournament)
		r.Get("/{tournamentID}/bracket", matchHandler.GetBracket)

		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)

			r.Get("/{tournamentID}/user-teams", tournamentHandler.UserTeams)
			r.Post("/{tournamentID}/register", tournamentHandler.Register)
			r.Delete("/{tournamentID}/register", tournamentHandler.Unregister)
			r.Put("/{tournamentID}/status", tournamentHandler.UpdateStatus)

			r.With(middleware.RequireRole(models.RoleAdmin, models.RoleModerator)).
				Post("/", tournamentHandler.Create)
			r.With(middleware.RequireRole(models.RoleAdmin)).
				Post("/{tournamentID}/generate-bracket", matchHandler.GenerateBracket)
		})
	})

	router.Route("/api/matches", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)
			r.Use(middleware.RequireRole(models.RoleAdmin, models.RoleModerator))

			r.Post("/{matchID}/result", matchHandler.SubmitResult)
		})
	})

	router.Get("/ws/tournaments/{tournamentID}", webSocketHandler.ServeWs)
}
