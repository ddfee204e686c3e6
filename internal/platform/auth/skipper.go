package auth

import (
	"strings"

	"github.com/labstack/echo/v4"
)

// publicPaths lists URL paths that bypass authentication: infrastructure
// endpoints plus the anonymous browse-and-register surface.
var publicPaths = map[string]bool{
	"/health":               true,
	"/health/db":            true,
	"/api/v1/register":      true,
	"/api/v1/authenticate":  true,
	"/api/v1/activate":      true,
}

// publicPrefixes covers the anonymous browsing endpoints (hospital,
// doctor, and pack catalogs and their free-slot queries).
var publicPrefixes = []string{
	"/api/v1/hospitals",
	"/api/v1/doctors",
	"/api/v1/packs",
}

// Skipper reports whether a request may proceed without a bearer token.
// Only GETs are public on the browse prefixes; every mutation requires auth.
func Skipper(c echo.Context) bool {
	path := c.Request().URL.Path
	if publicPaths[path] {
		return true
	}
	if c.Request().Method != "GET" {
		return false
	}
	for _, prefix := range publicPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
