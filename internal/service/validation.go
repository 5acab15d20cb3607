package service

import (
	"errors"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/iliyamo/movie-watchlist/internal/model"
)

// MinYear is the earliest accepted release year.
const MinYear = 1878

// MaxValueLen bounds titles, names and child values.
const MaxValueLen = 100

// Messages shown next to form fields.
const (
	msgRequired  = "This field is required."
	msgTooLong   = "This value is too long."
	msgYear      = "Please enter a year in the format YYYY."
	msgRating    = "Movie rating must be a whole number between 1 and 5"
	msgEmail     = "Invalid email address."
	msgPassword  = "Your password must be between 4 and 20 characters long."
	msgMismatch  = "This password did not match the one in the password field."
	msgDuplicate = "This email is already registered."
	msgURL       = "Please enter a full http(s) link."
	msgWatchedAt = "Please enter a date like 2024-05-01 or 2024-05-01T20:30."
)

// MovieForm carries the raw strings of an add or edit submission. The
// same struct is filled from an HTML form, JSON or anything else.
type MovieForm struct {
	Title       string `form:"title" json:"title" validate:"required,max=100"`
	Director    string `form:"director" json:"director" validate:"required,max=100"`
	Year        string `form:"year" json:"year" validate:"required"`
	Description string `form:"description" json:"description" validate:"max=300"`
	VideoLink   string `form:"video_link" json:"video_link" validate:"omitempty,max=300,http_url"`
	Tags        string `form:"tags" json:"tags"`
	Cast        string `form:"cast" json:"cast"`
	Series      string `form:"series" json:"series"`
}

// RegisterForm carries a registration submission.
type RegisterForm struct {
	Email           string `form:"email" json:"email" validate:"required,max=100,email"`
	Password        string `form:"password" json:"-" validate:"required,min=4,max=20"`
	ConfirmPassword string `form:"confirm_password" json:"-" validate:"required,eqfield=Password"`
}

// LoginForm carries a login submission.
type LoginForm struct {
	Email    string `form:"email" json:"email" validate:"required,email"`
	Password string `form:"password" json:"-" validate:"required"`
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// Report fields by their form name so messages line up with inputs.
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
			if name == "" || name == "-" {
				return f.Name
			}
			return name
		})
	})
	return validate
}

// checkStruct runs the tag rules and translates failures into field errors.
func checkStruct(s any, out *ValidationError) {
	err := getValidator().Struct(s)
	if err == nil {
		return
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		out.add("form", ErrMissingField, err.Error())
		return
	}
	for _, fe := range verrs {
		field := fe.Field()
		switch fe.Tag() {
		case "required":
			out.add(field, ErrMissingField, msgRequired)
		case "email":
			out.add(field, ErrInvalidEmail, msgEmail)
		case "eqfield":
			out.add(field, ErrPasswordMismatch, msgMismatch)
		case "http_url":
			out.add(field, ErrInvalidURL, msgURL)
		case "min", "max":
			if field == "password" {
				out.add(field, ErrInvalidPassword, msgPassword)
			} else {
				out.add(field, ErrTooLong, msgTooLong)
			}
		default:
			out.add(field, ErrMissingField, fe.Error())
		}
	}
}

// normalize trims every free-text field in place.
func (f *MovieForm) normalize() {
	f.Title = strings.TrimSpace(f.Title)
	f.Director = strings.TrimSpace(f.Director)
	f.Year = strings.TrimSpace(f.Year)
	f.Description = strings.TrimSpace(f.Description)
	f.VideoLink = strings.TrimSpace(f.VideoLink)
}

// ValidateMovieFields turns a raw submission into a movie record (without
// owner or id) or a *ValidationError listing every bad field. It has no
// side effects.
func ValidateMovieFields(form MovieForm) (model.Movie, error) {
	form.normalize()
	verr := &ValidationError{}
	checkStruct(form, verr)

	var year int
	if form.Year != "" {
		y, err := ParseYear(form.Year)
		if err != nil {
			verr.add("year", ErrInvalidYear, msgYear)
		}
		year = y
	}
	if err := verr.orNil(); err != nil {
		return model.Movie{}, err
	}
	return model.Movie{
		Title:       form.Title,
		Director:    form.Director,
		Year:        year,
		Description: form.Description,
		VideoLink:   form.VideoLink,
	}, nil
}

// ValidateChildren splits the multi-value fields of a movie form.
func ValidateChildren(form MovieForm) (model.Children, error) {
	verr := &ValidationError{}
	out := model.Children{
		Tags:   splitChecked("tags", form.Tags, verr),
		Cast:   splitChecked("cast", form.Cast, verr),
		Series: splitChecked("series", form.Series, verr),
	}
	if err := verr.orNil(); err != nil {
		return model.Children{}, err
	}
	return out, nil
}

func splitChecked(field, raw string, verr *ValidationError) []string {
	vals := SplitValues(raw)
	for _, v := range vals {
		if len(v) > MaxValueLen {
			verr.add(field, ErrTooLong, msgTooLong)
			return nil
		}
	}
	return vals
}

// ParseYear accepts a base-10 integer no earlier than MinYear.
func ParseYear(raw string) (int, error) {
	y, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || y < MinYear {
		return 0, ErrInvalidYear
	}
	return y, nil
}

// ParseRating accepts a whole number from 1 to 5. Zero means "unrated"
// and can never be set explicitly.
func ParseRating(raw string) (int, error) {
	r, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || r < 1 || r > 5 {
		return 0, fieldErr("rating", ErrInvalidRating, msgRating)
	}
	return r, nil
}

// watchedLayouts are tried in order; the last two are what browsers send
// for datetime-local and date inputs.
var watchedLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseWatchedAt returns now when raw is blank, otherwise the parsed time
// in UTC. Layouts without a zone are read as UTC.
func ParseWatchedAt(raw string, now time.Time) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return now.UTC(), nil
	}
	for _, layout := range watchedLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fieldErr("watched_at", ErrInvalidTimestamp, msgWatchedAt)
}

// SplitValues splits a textarea into values: one per line or separated by
// commas, trimmed, blanks dropped, order kept.
func SplitValues(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == '\n' || r == '\r' || r == ','
	})
	var out []string
	for _, f := range fields {
		if v := strings.TrimSpace(f); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// ValidateRegistration checks a registration form and normalizes the email.
func ValidateRegistration(form RegisterForm) (RegisterForm, error) {
	form.Email = strings.ToLower(strings.TrimSpace(form.Email))
	verr := &ValidationError{}
	checkStruct(form, verr)
	return form, verr.orNil()
}

// ValidateLogin checks that a login form is complete and well formed.
func ValidateLogin(form LoginForm) (LoginForm, error) {
	form.Email = strings.ToLower(strings.TrimSpace(form.Email))
	verr := &ValidationError{}
	checkStruct(form, verr)
	return form, verr.orNil()
}
