package handler // handler defines the HTTP handlers behind the HTML pages

import (
    "errors"
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"
    "go.uber.org/zap"

    "github.com/iliyamo/movie-watchlist/internal/flash"
    "github.com/iliyamo/movie-watchlist/internal/middleware"
    "github.com/iliyamo/movie-watchlist/internal/service"
    "github.com/iliyamo/movie-watchlist/internal/view"
)

// Handler bundles the services the pages need.
type Handler struct {
    Auth         *service.AuthService
    Movies       *service.MovieService
    Log          *zap.Logger
    CookieSecure bool
}

// NewHandler constructs a Handler and panics if any dependency is nil.
func NewHandler(auth *service.AuthService, movies *service.MovieService, log *zap.Logger, cookieSecure bool) *Handler {
    if auth == nil || movies == nil || log == nil {
        panic("nil dependency passed to NewHandler")
    }
    return &Handler{Auth: auth, Movies: movies, Log: log, CookieSecure: cookieSecure}
}

// render wraps data in the common page model and executes the template.
func (h *Handler) render(c echo.Context, status int, name, title string, data any) error {
    id := middleware.IdentityFrom(c)
    return c.Render(status, name, view.Page{
        Title:     title,
        UserEmail: id.Email,
        Flashes:   flash.Pop(c),
        Theme:     themeFrom(c),
        Data:      data,
    })
}

// redirect queues a flash message and sends the client to path.
func redirect(c echo.Context, path, category, msg string) error {
    if msg != "" {
        flash.Add(c, category, msg)
    }
    return c.Redirect(http.StatusFound, path)
}

// pathID parses a numeric path parameter. Anything that is not a positive
// integer cannot name a row, so it is reported as not found.
func pathID(c echo.Context, name string) (uint64, error) {
    id, err := strconv.ParseUint(c.Param(name), 10, 64)
    if err != nil || id == 0 {
        return 0, service.ErrNotFound
    }
    return id, nil
}

// fieldErrors returns the per-field messages of a validation failure, or
// nil when err is not one.
func fieldErrors(err error) map[string]string {
    var verr *service.ValidationError
    if !errors.As(err, &verr) {
        return nil
    }
    out := make(map[string]string, len(verr.Fields))
    for _, f := range verr.Fields {
        if _, seen := out[f.Field]; !seen {
            out[f.Field] = f.Error()
        }
    }
    return out
}

func movieURL(id uint64) string {
    return "/movie/" + strconv.FormatUint(id, 10)
}
