package handler

import (
    "net/http"
    "net/url"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/movie-watchlist/internal/middleware"
    "github.com/iliyamo/movie-watchlist/internal/view"
)

// ThemeCookieName stores the light/dark preference.
const ThemeCookieName = "watchlist_theme"

// Home is the landing page. Logged-in users go straight to their list.
func (h *Handler) Home(c echo.Context) error {
    if middleware.IdentityFrom(c).Authenticated() {
        return c.Redirect(http.StatusFound, "/index")
    }
    return h.render(c, http.StatusOK, view.Home, "", nil)
}

func themeFrom(c echo.Context) string {
    if ck, err := c.Cookie(ThemeCookieName); err == nil && ck.Value == "dark" {
        return "dark"
    }
    return "light"
}

// ToggleTheme flips the theme cookie and sends the client back to the page
// it came from, provided that page is on this site.
func (h *Handler) ToggleTheme(c echo.Context) error {
    next := "dark"
    if themeFrom(c) == "dark" {
        next = "light"
    }
    c.SetCookie(&http.Cookie{
        Name:     ThemeCookieName,
        Value:    next,
        Path:     "/",
        Expires:  time.Now().AddDate(1, 0, 0),
        HttpOnly: true,
        Secure:   h.CookieSecure,
        SameSite: http.SameSiteLaxMode,
    })
    target := c.QueryParam("next")
    if target == "" {
        target = c.Request().Referer()
    }
    return c.Redirect(http.StatusFound, localPath(target, c.Request().Host))
}

// localPath reduces raw to a path on this host, or "/" when it points
// anywhere else.
func localPath(raw, host string) string {
    u, err := url.Parse(raw)
    if err != nil || raw == "" {
        return "/"
    }
    if u.Scheme != "" && u.Scheme != "http" && u.Scheme != "https" {
        return "/"
    }
    if u.Host != "" && !strings.EqualFold(u.Host, host) {
        return "/"
    }
    p := u.EscapedPath()
    if !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") || strings.Contains(p, "\\") {
        return "/"
    }
    if u.RawQuery != "" {
        p += "?" + u.RawQuery
    }
    return p
}
