package routes

import (
	"net/http"

	"github.com/testguru/timelines/internal/app"
	"github.com/testguru/timelines/internal/handler"
	"github.com/testguru/timelines/internal/middleware"
)

func SetupRoutes(app *app.App) http.Handler {
	// Handlers
	auth := handler.NewAuthHandler(app.AuthService)
	timeline := handler.NewTimelineHandler(app.TimelineService)
	keyPhoto := handler.NewKeyPhotoHandler(app.KeyPhotoService)

	mux := http.NewServeMux()

	// Auth
	mux.HandleFunc("POST /auth/register", auth.Register)
	mux.HandleFunc("POST /auth/login", auth.Login)

	// Timelines
	mux.HandleFunc("GET /timelines/types", middleware.RequireAuth(timeline.ListTypes))
	mux.HandleFunc("POST /timelines", middleware.RequireAuth(timeline.Create))
	mux.HandleFunc("GET /timelines", middleware.RequireAuth(timeline.ListMine))
	mux.HandleFunc("GET /timelines/{id}", middleware.RequireAuth(timeline.Get))
	mux.HandleFunc("DELETE /timelines/{id}", middleware.RequireAuth(timeline.SoftDelete))

	// Key photos
	mux.HandleFunc("POST /keyphotos", middleware.RequireAuth(keyPhoto.Upload))
	mux.HandleFunc("GET /keyphotos", middleware.RequireAuth(keyPhoto.ListMine))
	mux.HandleFunc("GET /keyphotos/{id}", middleware.RequireAuth(keyPhoto.Get))
	mux.HandleFunc("GET /keyphotos/{id}/download", middleware.RequireAuth(keyPhoto.Download))
	mux.HandleFunc("DELETE /keyphotos/{id}", middleware.RequireAuth(keyPhoto.SoftDelete))
	mux.HandleFunc("DELETE /keyphotos/{id}/permanent", middleware.RequireAuth(keyPhoto.HardDelete))

	// Global middleware - executed in order (top to bottom)
	handler := middleware.Chain(
		mux,
		middleware.RequestLogging,
		middleware.AuthMiddleware(app.AuthService, app.UserService),
	)

	return handler
}
