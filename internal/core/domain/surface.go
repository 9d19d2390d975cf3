package domain

import "strings"

// Surface identifies which login context a request serves.
type Surface string

const (
	SurfacePrimary        Surface = "primary"        // End-user facing site
	SurfaceAdministrative Surface = "administrative" // Privileged back office
)

// ParseSurface maps a query/JSON value to a Surface.
// The legacy names "frontend" and "backend" are accepted as aliases.
func ParseSurface(s string) (Surface, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "primary", "frontend", "":
		return SurfacePrimary, true
	case "administrative", "admin", "backend":
		return SurfaceAdministrative, true
	default:
		return "", false
	}
}

// IsAdministrative reports whether s is the administrative surface.
func (s Surface) IsAdministrative() bool {
	return s == SurfaceAdministrative
}

// legacyName is the value carried in the state payload "type" field.
func (s Surface) legacyName() string {
	if s == SurfaceAdministrative {
		return "backend"
	}
	return "frontend"
}
