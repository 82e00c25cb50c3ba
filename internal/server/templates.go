package server

import (
	"embed"
	"fmt"
	"html/template"
	"strings"

	"github.com/Zachkp/moto-portfolio/internal/profile"
)

//go:embed templates/*.html
var templateFS embed.FS

var templateFuncs = template.FuncMap{
	"initial": func(name string) string {
		if name == "" {
			return "?"
		}
		return strings.ToUpper(name[:1])
	},
	"displayName": profile.ResolveName,
	"landing": func(role string) string {
		return profile.LandingRouteFor(role).String()
	},
}

func loadTemplates() (*template.Template, error) {
	tmpl, err := template.New("").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}
	return tmpl, nil
}
