package handler

import (
    "fmt"
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/movie-watchlist/internal/flash"
    "github.com/iliyamo/movie-watchlist/internal/middleware"
    "github.com/iliyamo/movie-watchlist/internal/model"
    "github.com/iliyamo/movie-watchlist/internal/service"
    "github.com/iliyamo/movie-watchlist/internal/view"
)

type moviesData struct {
    Movies []*model.Movie
}

// detailsData backs the movie page. Errors and WatchedAt are only set when
// a rating or watch submission is re-displayed.
type detailsData struct {
    *model.MovieDetails
    Errors    map[string]string
    WatchedAt string
}

type movieFormData struct {
    Heading string
    Action  string
    Submit  string
    Editing bool
    Form    service.MovieForm
    Errors  map[string]string
}

// Index lists the caller's movies.
func (h *Handler) Index(c echo.Context) error {
    movies, err := h.Movies.List(c.Request().Context(), middleware.IdentityFrom(c))
    if err != nil {
        return err
    }
    return h.render(c, http.StatusOK, view.Movies, "My movies", moviesData{Movies: movies})
}

// AddPage shows an empty movie form.
func (h *Handler) AddPage(c echo.Context) error {
    return h.render(c, http.StatusOK, view.MovieForm, "Add movie", addFormData(service.MovieForm{}, nil))
}

func addFormData(form service.MovieForm, errs map[string]string) movieFormData {
    return movieFormData{Heading: "Add a movie", Action: "/add", Submit: "Add movie", Form: form, Errors: errs}
}

// Add creates a movie together with its tags, cast and series.
func (h *Handler) Add(c echo.Context) error {
    var form service.MovieForm
    if err := c.Bind(&form); err != nil {
        return echo.NewHTTPError(http.StatusBadRequest)
    }
    m, err := h.Movies.Add(c.Request().Context(), middleware.IdentityFrom(c), form)
    if errs := fieldErrors(err); errs != nil {
        return h.render(c, http.StatusOK, view.MovieForm, "Add movie", addFormData(form, errs))
    }
    if err != nil {
        return err
    }
    return redirect(c, movieURL(m.ID), flash.Success, fmt.Sprintf("%q was added to your watchlist.", m.Title))
}

// View shows one movie with its children.
func (h *Handler) View(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return err
    }
    return h.details(c, id, nil, "")
}

// details renders the movie page, optionally with inline errors.
func (h *Handler) details(c echo.Context, id uint64, errs map[string]string, watchedAt string) error {
    d, err := h.Movies.Get(c.Request().Context(), middleware.IdentityFrom(c), id)
    if err != nil {
        return err
    }
    return h.render(c, http.StatusOK, view.MovieDetails, d.Movie.Title,
        detailsData{MovieDetails: d, Errors: errs, WatchedAt: watchedAt})
}

func editFormData(id uint64, form service.MovieForm, errs map[string]string) movieFormData {
    return movieFormData{
        Heading: "Edit movie",
        Action:  "/edit/" + strconv.FormatUint(id, 10),
        Submit:  "Save changes",
        Editing: true,
        Form:    form,
        Errors:  errs,
    }
}

// EditPage shows the edit form filled with the stored values.
func (h *Handler) EditPage(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return err
    }
    m, err := h.Movies.Authorize(c.Request().Context(), middleware.IdentityFrom(c), id)
    if err != nil {
        return err
    }
    form := service.MovieForm{
        Title:       m.Title,
        Director:    m.Director,
        Year:        strconv.Itoa(m.Year),
        Description: m.Description,
        VideoLink:   m.VideoLink,
    }
    return h.render(c, http.StatusOK, view.MovieForm, "Edit "+m.Title, editFormData(id, form, nil))
}

// Edit saves the edit form.
func (h *Handler) Edit(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return err
    }
    var form service.MovieForm
    if err := c.Bind(&form); err != nil {
        return echo.NewHTTPError(http.StatusBadRequest)
    }
    m, err := h.Movies.Edit(c.Request().Context(), middleware.IdentityFrom(c), id, form)
    if errs := fieldErrors(err); errs != nil {
        return h.render(c, http.StatusOK, view.MovieForm, "Edit movie", editFormData(id, form, errs))
    }
    if err != nil {
        return err
    }
    return redirect(c, movieURL(m.ID), flash.Success, "Your changes have been saved.")
}

// Rate sets the rating given in the path. A bad rating re-displays the
// movie with an inline message.
func (h *Handler) Rate(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return err
    }
    m, err := h.Movies.Rate(c.Request().Context(), middleware.IdentityFrom(c), id, c.Param("rating"))
    if errs := fieldErrors(err); errs != nil {
        return h.details(c, id, errs, "")
    }
    if err != nil {
        return err
    }
    return redirect(c, movieURL(m.ID), flash.Success, fmt.Sprintf("Rated %d out of 5.", m.Rating))
}

// Watch records when the movie was last watched.
func (h *Handler) Watch(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return err
    }
    raw := c.FormValue("watched_at")
    m, err := h.Movies.MarkWatched(c.Request().Context(), middleware.IdentityFrom(c), id, raw)
    if errs := fieldErrors(err); errs != nil {
        return h.details(c, id, errs, raw)
    }
    if err != nil {
        return err
    }
    return redirect(c, movieURL(m.ID), flash.Success, "Marked as watched.")
}

// Delete removes a movie and everything attached to it.
func (h *Handler) Delete(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return err
    }
    m, err := h.Movies.Delete(c.Request().Context(), middleware.IdentityFrom(c), id)
    if err != nil {
        return err
    }
    return redirect(c, "/index", flash.Success, fmt.Sprintf("%q was deleted.", m.Title))
}
