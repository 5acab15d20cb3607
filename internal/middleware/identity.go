package middleware

// identity.go holds the helpers that move the authenticated caller between
// middleware and handlers. Handlers never read cookies themselves; they ask
// for the Identity placed here by Session.

import (
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/movie-watchlist/internal/service"
)

const identityKey = "identity"

// SetIdentity stores the caller on the request context.
func SetIdentity(c echo.Context, id service.Identity) {
    c.Set(identityKey, id)
}

// IdentityFrom returns the caller stored by Session, or the zero Identity
// for anonymous requests.
func IdentityFrom(c echo.Context) service.Identity {
    if id, ok := c.Get(identityKey).(service.Identity); ok {
        return id
    }
    return service.Identity{}
}

// userID renders the caller's id for logs and rate limit keys. It returns
// "guest" when nobody is logged in.
func userID(c echo.Context) string {
    id := IdentityFrom(c)
    if !id.Authenticated() {
        return "guest"
    }
    return strconv.FormatUint(id.UserID, 10)
}
