package handler

import (
    "errors"
    "net/http"

    "github.com/labstack/echo/v4"
    "go.uber.org/zap"

    "github.com/iliyamo/movie-watchlist/internal/flash"
    "github.com/iliyamo/movie-watchlist/internal/service"
    "github.com/iliyamo/movie-watchlist/internal/view"
)

type errorData struct {
    Status  int
    Heading string
    Message string
}

// classify maps an error to a status and the text shown to the user. The
// text never includes the error itself.
func classify(err error) errorData {
    switch {
    case errors.Is(err, service.ErrNotFound):
        return errorData{http.StatusNotFound, "Page not found", "We couldn't find what you were looking for."}
    case errors.Is(err, service.ErrForbidden):
        return errorData{http.StatusForbidden, "Forbidden", "You don't have permission to access this page."}
    }
    var he *echo.HTTPError
    if errors.As(err, &he) {
        switch he.Code {
        case http.StatusNotFound:
            return errorData{http.StatusNotFound, "Page not found", "We couldn't find what you were looking for."}
        case http.StatusForbidden:
            return errorData{http.StatusForbidden, "Forbidden", "You don't have permission to access this page."}
        case http.StatusTooManyRequests:
            msg, ok := he.Message.(string)
            if !ok {
                msg = "Too many requests."
            }
            return errorData{he.Code, "Slow down", msg}
        }
        if he.Code < 500 {
            return errorData{he.Code, http.StatusText(he.Code), "The request could not be processed."}
        }
    }
    return errorData{http.StatusInternalServerError, "Something went wrong", "An unexpected error occurred. Please try again later."}
}

// HTTPErrorHandler renders error pages for anything a handler returns.
// Unauthenticated callers are sent to the login page instead.
func (h *Handler) HTTPErrorHandler(err error, c echo.Context) {
    if c.Response().Committed {
        return
    }
    if errors.Is(err, service.ErrUnauthenticated) {
        flash.Add(c, flash.Info, "Please log in to access this page.")
        _ = c.Redirect(http.StatusFound, "/auth/login")
        return
    }

    data := classify(err)
    if data.Status >= 500 {
        h.Log.Error("request failed",
            zap.String("method", c.Request().Method),
            zap.String("path", c.Request().URL.Path),
            zap.Error(err))
    }
    if c.Request().Method == http.MethodHead {
        _ = c.NoContent(data.Status)
        return
    }
    if rerr := h.render(c, data.Status, view.Error, data.Heading, data); rerr != nil {
        h.Log.Error("render error page", zap.Error(rerr))
        _ = c.String(data.Status, data.Heading)
    }
}
