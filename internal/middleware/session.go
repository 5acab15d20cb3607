package middleware

import (
    "context"
    "errors"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"
    "go.uber.org/zap"

    "github.com/iliyamo/movie-watchlist/internal/flash"
    "github.com/iliyamo/movie-watchlist/internal/service"
)

// SessionCookieName is the cookie carrying the signed session token.
const SessionCookieName = "watchlist_session"

// Authenticator resolves a session cookie to a caller.
type Authenticator interface {
    Authenticate(ctx context.Context, cookie string) (service.Identity, error)
}

// Session reads the session cookie on every request and stores the caller
// on the context. Invalid, expired or revoked cookies are cleared and the
// request continues anonymously.
func Session(auth Authenticator, secure bool, log *zap.Logger) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            ck, err := c.Cookie(SessionCookieName)
            if err != nil || ck.Value == "" {
                return next(c)
            }
            id, err := auth.Authenticate(c.Request().Context(), ck.Value)
            switch {
            case err == nil:
                SetIdentity(c, id)
            case errors.Is(err, service.ErrUnauthenticated):
                ClearSessionCookie(c, secure)
            default:
                log.Error("session lookup failed", zap.Error(err))
                return err
            }
            return next(c)
        }
    }
}

// RequireAuth redirects anonymous callers to the login page.
func RequireAuth() echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if !IdentityFrom(c).Authenticated() {
                flash.Add(c, flash.Info, "Please log in to access this page.")
                return c.Redirect(http.StatusFound, "/auth/login")
            }
            return next(c)
        }
    }
}

// AnonymousOnly sends callers who are already logged in to their list.
func AnonymousOnly() echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if IdentityFrom(c).Authenticated() {
                return c.Redirect(http.StatusFound, "/index")
            }
            return next(c)
        }
    }
}

// SetSessionCookie writes a persistent session cookie expiring at exp.
func SetSessionCookie(c echo.Context, token string, exp time.Time, secure bool) {
    c.SetCookie(&http.Cookie{
        Name:     SessionCookieName,
        Value:    token,
        Path:     "/",
        Expires:  exp,
        MaxAge:   int(time.Until(exp).Seconds()),
        HttpOnly: true,
        Secure:   secure,
        SameSite: http.SameSiteLaxMode,
    })
}

// ClearSessionCookie expires the session cookie.
func ClearSessionCookie(c echo.Context, secure bool) {
    c.SetCookie(&http.Cookie{
        Name:     SessionCookieName,
        Value:    "",
        Path:     "/",
        Expires:  time.Unix(0, 0),
        MaxAge:   -1,
        HttpOnly: true,
        Secure:   secure,
        SameSite: http.SameSiteLaxMode,
    })
}
