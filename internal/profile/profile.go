// Package profile holds the viewer identities a visitor picks from before
// the portfolio opens, and the rules that reduce them to session records.
package profile

import (
	"strings"
)

const (
	// DefaultName is used when a profile carries no display name.
	DefaultName = "Guest"
	// DefaultRole is used when neither a role nor a name is available.
	DefaultRole = "guest"
	// DefaultColorScheme is used when no colour is configured.
	DefaultColorScheme = "#000000"
)

// Profile is a catalog entry as configured.
type Profile struct {
	ID          string `json:"id,omitempty" koanf:"id" yaml:"id"`
	Name        string `json:"name,omitempty" koanf:"name" yaml:"name"`
	Role        string `json:"role,omitempty" koanf:"role" yaml:"role"`
	Title       string `json:"title,omitempty" koanf:"title" yaml:"title"`
	ColorScheme string `json:"colorScheme,omitempty" koanf:"color_scheme" yaml:"color_scheme"`
	Color       string `json:"color,omitempty" koanf:"color" yaml:"color,omitempty"`
	AvatarURL   string `json:"avatarUrl,omitempty" koanf:"avatar_url" yaml:"avatar_url"`
	RedirectURL string `json:"redirectUrl,omitempty" koanf:"redirect_url" yaml:"redirect_url,omitempty"`
}

// Redirects reports whether choosing the profile leaves the site.
func (p Profile) Redirects() bool {
	return strings.TrimSpace(p.RedirectURL) != ""
}

// Normalized is the minimal shape persisted in the visitor's session.
// Role is always lowercase and non-empty.
type Normalized struct {
	ID          *string `json:"id"`
	Name        string  `json:"name"`
	Role        string  `json:"role"`
	ColorScheme string  `json:"colorScheme"`
}

// IDString returns the id or "" when the profile has none.
func (n Normalized) IDString() string {
	if n.ID == nil {
		return ""
	}
	return *n.ID
}

// Normalize reduces p to its session record. Precedence:
//
//	id:          ID, else null
//	name:        Name, else "Guest"
//	role:        Role, else Name, else "guest" (trimmed, lowercased)
//	colorScheme: ColorScheme, else Color, else "#000000"
func Normalize(p Profile) Normalized {
	n := Normalized{
		Name:        ResolveName(p),
		Role:        ResolveRole(p),
		ColorScheme: ResolveColorScheme(p),
	}
	if p.ID != "" {
		id := p.ID
		n.ID = &id
	}
	return n
}

// ResolveName applies the name precedence of Normalize.
func ResolveName(p Profile) string {
	if p.Name != "" {
		return p.Name
	}
	return DefaultName
}

// ResolveRole applies the role precedence of Normalize.
func ResolveRole(p Profile) string {
	if role := strings.TrimSpace(p.Role); role != "" {
		return strings.ToLower(role)
	}
	if name := strings.TrimSpace(p.Name); name != "" {
		return strings.ToLower(name)
	}
	return DefaultRole
}

// ResolveColorScheme applies the colour precedence of Normalize.
func ResolveColorScheme(p Profile) string {
	switch {
	case p.ColorScheme != "":
		return p.ColorScheme
	case p.Color != "":
		return p.Color
	default:
		return DefaultColorScheme
	}
}
