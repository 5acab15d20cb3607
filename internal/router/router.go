package router // package router defines how HTTP routes are registered

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-watchlist/internal/handler"
	"github.com/iliyamo/movie-watchlist/internal/middleware"
)

// RegisterRoutes registers routes that need no session: the landing page,
// the health check and the theme toggle.
func RegisterRoutes(e *echo.Echo, h *handler.Handler, db handler.Pinger) {
	e.GET("/", h.Home)
	e.GET("/healthz", handler.Health(db))
	e.GET("/toggle-theme", h.ToggleTheme)
}

// RegisterAuth registers the register, login and logout pages. The form
// posts go through limit, which may be a pass-through.
func RegisterAuth(e *echo.Echo, h *handler.Handler, limit echo.MiddlewareFunc) {
	anon := middleware.AnonymousOnly()
	e.GET("/auth/register", h.RegisterPage, anon)
	e.POST("/auth/register", h.Register, anon, limit)
	e.GET("/auth/login", h.LoginPage, anon)
	e.POST("/auth/login", h.Login, anon, limit)
	// Logout works whether or not the session is still valid.
	e.GET("/auth/logout", h.Logout)
}

// RegisterMovies registers every page that needs a logged-in user. The
// guard is attached per route; a group guard would also catch unknown
// paths and turn 404s into login redirects.
func RegisterMovies(e *echo.Echo, h *handler.Handler) {
	auth := middleware.RequireAuth()

	e.GET("/index", h.Index, auth)
	e.GET("/add", h.AddPage, auth)
	e.POST("/add", h.Add, auth)

	e.GET("/movie/:id", h.View, auth)
	// Static segments win over params, so /watch never reaches Rate.
	e.POST("/movie/:id/watch", h.Watch, auth)
	e.POST("/movie/:id/:rating", h.Rate, auth)

	e.GET("/edit/:id", h.EditPage, auth)
	e.POST("/edit/:id", h.Edit, auth)

	// :kind is tags, cast or series.
	e.GET("/add/:kind/:id", h.AddChildrenPage, auth)
	e.POST("/add/:kind/:id", h.AddChildren, auth)
	e.POST("/movie/:id/delete/:kind/:childId", h.DeleteChild, auth)

	e.GET("/:id/delete", h.Delete, auth)
}
