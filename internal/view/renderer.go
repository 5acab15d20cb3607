// Package view renders the HTML pages. Templates are embedded and parsed
// once at startup; each page is parsed together with the shared layout.
package view

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-watchlist/internal/flash"
)

//go:embed templates/*.html
var templateFS embed.FS

// Page names.
const (
	Home         = "home.html"
	Login        = "login.html"
	Register     = "register.html"
	Movies       = "movies.html"
	MovieDetails = "movie_details.html"
	MovieForm    = "movie_form.html"
	ChildForm    = "children_form.html"
	Error        = "error.html"
)

var pages = []string{Home, Login, Register, Movies, MovieDetails, MovieForm, ChildForm, Error}

// Page is the data every template receives. Data holds the page specific
// view model.
type Page struct {
	Title     string
	UserEmail string
	Flashes   []flash.Message
	Theme     string
	Data      any
}

// LoggedIn reports whether the page is rendered for a logged-in user.
func (p Page) LoggedIn() bool { return p.UserEmail != "" }

// Renderer implements echo.Renderer.
type Renderer struct {
	templates map[string]*template.Template
}

// New parses every page with the layout.
func New() (*Renderer, error) {
	r := &Renderer{templates: make(map[string]*template.Template, len(pages))}
	for _, name := range pages {
		t, err := template.New("layout.html").Funcs(funcMap).
			ParseFS(templateFS, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		r.templates[name] = t
	}
	return r, nil
}

// Render executes the named page.
func (r *Renderer) Render(w io.Writer, name string, data any, _ echo.Context) error {
	t, ok := r.templates[name]
	if !ok {
		return fmt.Errorf("unknown template %q", name)
	}
	return t.ExecuteTemplate(w, "layout.html", data)
}

var funcMap = template.FuncMap{
	"stars": func(rating int) string {
		if rating <= 0 {
			return "Not rated"
		}
		return strings.Repeat("★", rating) + strings.Repeat("☆", 5-rating)
	},
	"datetime": func(t *time.Time) string {
		if t == nil {
			return "Never"
		}
		return t.UTC().Format("2006-01-02 15:04")
	},
	"ratings": func() []int { return []int{1, 2, 3, 4, 5} },
	"lower":   strings.ToLower,
	// dict builds a map from alternating keys and values so a sub-template
	// can take several arguments.
	"dict": func(kv ...any) (map[string]any, error) {
		if len(kv)%2 != 0 {
			return nil, fmt.Errorf("dict: odd number of arguments")
		}
		m := make(map[string]any, len(kv)/2)
		for i := 0; i < len(kv); i += 2 {
			k, ok := kv[i].(string)
			if !ok {
				return nil, fmt.Errorf("dict: key %v is not a string", kv[i])
			}
			m[k] = kv[i+1]
		}
		return m, nil
	},
}
