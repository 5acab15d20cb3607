// Package flash carries one-shot messages across a redirect in a short
// lived cookie.
package flash

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// CookieName is the cookie holding pending messages.
const CookieName = "watchlist_flash"

// Categories used by the templates for styling.
const (
	Success = "success"
	Info    = "info"
	Danger  = "danger"
)

// Message is one flash message.
type Message struct {
	Category string `json:"c"`
	Text     string `json:"t"`
}

const pendingKey = "flash.pending"

// Add queues a message for the next page the client loads. Several calls
// in one request accumulate.
func Add(c echo.Context, category, text string) {
	pending, _ := c.Get(pendingKey).([]Message)
	pending = append(pending, Message{Category: category, Text: text})
	c.Set(pendingKey, pending)

	raw, err := json.Marshal(pending)
	if err != nil {
		return
	}
	c.SetCookie(&http.Cookie{
		Name:     CookieName,
		Value:    base64.RawURLEncoding.EncodeToString(raw),
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// Pop returns and clears the messages sent with the request. Malformed
// cookies are dropped silently.
func Pop(c echo.Context) []Message {
	ck, err := c.Cookie(CookieName)
	if err != nil || ck.Value == "" {
		return nil
	}
	c.SetCookie(&http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	raw, err := base64.RawURLEncoding.DecodeString(ck.Value)
	if err != nil {
		return nil
	}
	var msgs []Message
	if err := json.Unmarshal(raw, &msgs); err != nil {
		return nil
	}
	return msgs
}
