package handler

import (
    "fmt"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/movie-watchlist/internal/flash"
    "github.com/iliyamo/movie-watchlist/internal/middleware"
    "github.com/iliyamo/movie-watchlist/internal/model"
    "github.com/iliyamo/movie-watchlist/internal/service"
    "github.com/iliyamo/movie-watchlist/internal/view"
)

type childFormData struct {
    Movie    *model.Movie
    Kind     string
    Label    string
    Value    string
    Existing []model.Child
    Errors   map[string]string
}

var kindLabels = map[model.ChildKind]string{
    model.KindTag:    "Tags",
    model.KindCast:   "Cast",
    model.KindSeries: "Series",
}

// pathKind reads the :kind segment ("tags", "cast" or "series").
func pathKind(c echo.Context) (model.ChildKind, error) {
    kind, ok := model.KindFromPlural(c.Param("kind"))
    if !ok {
        return "", service.ErrNotFound
    }
    return kind, nil
}

// childForm loads the movie and renders the add form for kind.
func (h *Handler) childForm(c echo.Context, kind model.ChildKind, id uint64, value string, errs map[string]string) error {
    d, err := h.Movies.Get(c.Request().Context(), middleware.IdentityFrom(c), id)
    if err != nil {
        return err
    }
    existing := d.Tags
    switch kind {
    case model.KindCast:
        existing = d.Cast
    case model.KindSeries:
        existing = d.Series
    }
    return h.render(c, http.StatusOK, view.ChildForm, "Add "+kindLabels[kind], childFormData{
        Movie:    d.Movie,
        Kind:     kind.Plural(),
        Label:    kindLabels[kind],
        Value:    value,
        Existing: existing,
        Errors:   errs,
    })
}

// AddChildrenPage shows the form for appending tags, cast or series.
func (h *Handler) AddChildrenPage(c echo.Context) error {
    kind, err := pathKind(c)
    if err != nil {
        return err
    }
    id, err := pathID(c, "id")
    if err != nil {
        return err
    }
    return h.childForm(c, kind, id, "", nil)
}

// AddChildren appends the submitted values in one batch.
func (h *Handler) AddChildren(c echo.Context) error {
    kind, err := pathKind(c)
    if err != nil {
        return err
    }
    id, err := pathID(c, "id")
    if err != nil {
        return err
    }
    raw := c.FormValue(kind.Plural())
    n, err := h.Movies.AddChildren(c.Request().Context(), middleware.IdentityFrom(c), id, kind, raw)
    if errs := fieldErrors(err); errs != nil {
        return h.childForm(c, kind, id, raw, errs)
    }
    if err != nil {
        return err
    }
    return redirect(c, movieURL(id), flash.Success, fmt.Sprintf("Added %d to %s.", n, kindLabels[kind]))
}

// DeleteChild removes one tag, cast member or series.
func (h *Handler) DeleteChild(c echo.Context) error {
    kind, err := pathKind(c)
    if err != nil {
        return err
    }
    id, err := pathID(c, "id")
    if err != nil {
        return err
    }
    childID, err := pathID(c, "childId")
    if err != nil {
        return err
    }
    if err := h.Movies.DeleteChild(c.Request().Context(), middleware.IdentityFrom(c), id, kind, childID); err != nil {
        return err
    }
    return redirect(c, movieURL(id), flash.Success, "Removed from "+kindLabels[kind]+".")
}
