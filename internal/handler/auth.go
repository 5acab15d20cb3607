package handler

import (
    "errors"
    "net/http"

    "github.com/labstack/echo/v4"
    "go.uber.org/zap"

    "github.com/iliyamo/movie-watchlist/internal/flash"
    "github.com/iliyamo/movie-watchlist/internal/middleware"
    "github.com/iliyamo/movie-watchlist/internal/service"
    "github.com/iliyamo/movie-watchlist/internal/view"
)

// authFormData backs the login and registration pages. Passwords are never
// echoed back.
type authFormData struct {
    Email   string
    Errors  map[string]string
    Message string
}

// RegisterPage shows the registration form.
func (h *Handler) RegisterPage(c echo.Context) error {
    return h.render(c, http.StatusOK, view.Register, "Register", authFormData{})
}

// Register creates an account and logs the new user in.
func (h *Handler) Register(c echo.Context) error {
    var form service.RegisterForm
    if err := c.Bind(&form); err != nil {
        return echo.NewHTTPError(http.StatusBadRequest)
    }
    sess, err := h.Auth.Register(c.Request().Context(), form)
    if errs := fieldErrors(err); errs != nil {
        return h.render(c, http.StatusOK, view.Register, "Register",
            authFormData{Email: form.Email, Errors: errs})
    }
    if err != nil {
        return err
    }
    middleware.SetSessionCookie(c, sess.Token, sess.ExpiresAt, h.CookieSecure)
    return redirect(c, "/index", flash.Success, "Welcome! Your account has been created.")
}

// LoginPage shows the login form.
func (h *Handler) LoginPage(c echo.Context) error {
    return h.render(c, http.StatusOK, view.Login, "Log in", authFormData{})
}

// Login verifies credentials and starts a persistent session.
func (h *Handler) Login(c echo.Context) error {
    var form service.LoginForm
    if err := c.Bind(&form); err != nil {
        return echo.NewHTTPError(http.StatusBadRequest)
    }
    sess, err := h.Auth.Login(c.Request().Context(), form)
    if errs := fieldErrors(err); errs != nil {
        return h.render(c, http.StatusOK, view.Login, "Log in",
            authFormData{Email: form.Email, Errors: errs})
    }
    if errors.Is(err, service.ErrInvalidCredentials) {
        return h.render(c, http.StatusOK, view.Login, "Log in",
            authFormData{Email: form.Email, Message: "Invalid email or password."})
    }
    if err != nil {
        return err
    }
    middleware.SetSessionCookie(c, sess.Token, sess.ExpiresAt, h.CookieSecure)
    return redirect(c, "/index", flash.Success, "You are now logged in.")
}

// Logout ends the session. It always succeeds from the client's view.
func (h *Handler) Logout(c echo.Context) error {
    if ck, err := c.Cookie(middleware.SessionCookieName); err == nil {
        if err := h.Auth.Logout(c.Request().Context(), ck.Value); err != nil {
            h.Log.Warn("logout failed", zap.Error(err))
        }
    }
    middleware.ClearSessionCookie(c, h.CookieSecure)
    return redirect(c, "/auth/login", flash.Info, "You have been logged out.")
}
