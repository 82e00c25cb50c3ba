// Package content is the static copy of the portfolio: the about text,
// project cards and certification pages.
package content

import (
	"errors"
	"fmt"
)

// ErrUnknownPage is returned for a certification slug that does not exist.
var ErrUnknownPage = errors.New("unknown certification page")

// Project is one project card.
type Project struct {
	Name    string   `koanf:"name" yaml:"name"`
	Summary string   `koanf:"summary" yaml:"summary"`
	Stack   []string `koanf:"stack" yaml:"stack"`
}

// Certification is one certificate on a certification page.
type Certification struct {
	Title       string `koanf:"title" yaml:"title"`
	Description string `koanf:"description" yaml:"description"`
	Image       string `koanf:"image" yaml:"image"`
	PDF         string `koanf:"pdf" yaml:"pdf"`
}

// Page is a certification page, named after a motorcycle part.
type Page struct {
	Slug           string          `koanf:"slug" yaml:"slug"`
	Title          string          `koanf:"title" yaml:"title"`
	Tagline        string          `koanf:"tagline" yaml:"tagline"`
	Certifications []Certification `koanf:"certifications" yaml:"certifications"`
}

// Content is everything the display pages render.
type Content struct {
	About    string    `koanf:"about" yaml:"about"`
	Projects []Project `koanf:"projects" yaml:"projects"`
	Pages    []Page    `koanf:"pages" yaml:"pages"`
}

// Page returns the certification page with slug.
func (c Content) Page(slug string) (Page, error) {
	for _, p := range c.Pages {
		if p.Slug == slug {
			return p, nil
		}
	}
	return Page{}, fmt.Errorf("%w: %q", ErrUnknownPage, slug)
}

// Validate rejects pages without a slug and duplicate slugs.
func (c Content) Validate() error {
	seen := make(map[string]bool, len(c.Pages))
	for i, p := range c.Pages {
		if p.Slug == "" {
			return fmt.Errorf("certification page %d has no slug", i)
		}
		if seen[p.Slug] {
			return fmt.Errorf("duplicate certification page %q", p.Slug)
		}
		seen[p.Slug] = true
	}
	return nil
}

// WithDefaults fills empty sections from Default.
func (c Content) WithDefaults() Content {
	d := Default()
	if c.About == "" {
		c.About = d.About
	}
	if len(c.Projects) == 0 {
		c.Projects = d.Projects
	}
	if len(c.Pages) == 0 {
		c.Pages = d.Pages
	}
	return c
}

// Default returns the built-in copy.
func Default() Content {
	return Content{
		About: `I love building software that's both useful and fun, and I'm always curious about how things work behind the scenes.
Most of my projects start with a simple idea and turn into a chance to learn something new, whether it's exploring a
different language, experimenting with tools, or solving tricky problems.
When I'm not coding, you'll usually find me in the garage or out on the bike.`,
		Projects: []Project{
			{
				Name:    "Terminal Mail",
				Summary: "A terminal-based email client with fuzzy finding, built on the Charmbracelet TUI framework and go-imap.",
				Stack:   []string{"Go", "Bubble Tea", "IMAP"},
			},
			{
				Name:    "Terminal Music",
				Summary: "A terminal music streaming application with a TUI front end, using yt-dlp and mpv for YouTube Music playback from the command line.",
				Stack:   []string{"Go", "Bubble Tea", "mpv"},
			},
			{
				Name:    "Game Recommender",
				Summary: "A web application that recommends games with TF-IDF vectorization and cosine similarity, with interactive visualizations and filtering by reviews and ratings.",
				Stack:   []string{"Python", "scikit-learn"},
			},
			{
				Name:    "Moto Portfolio",
				Summary: "This site: a Gin server with profile-gated pages, an engine-start loader and an admin terminal.",
				Stack:   []string{"Go", "Gin", "SQLite"},
			},
		},
		Pages: []Page{
			{
				Slug:    "frontend-fairing",
				Title:   "Frontend Fairing",
				Tagline: "The bodywork: what visitors see first.",
				Certifications: []Certification{
					{Title: "React Certification", Description: "Components, hooks and state management", Image: "/assets/certificates/react.jpg"},
				},
			},
			{
				Slug:    "reliable-honda",
				Title:   "Reliable Honda",
				Tagline: "The engine: backend services that keep running.",
				Certifications: []Certification{
					{Title: "Backend Certification", Description: "Node.js, MongoDB, GoLang", Image: "/assets/certificates/backend.jpg"},
				},
			},
			{
				Slug:    "devops-ecu",
				Title:   "DevOps ECU",
				Tagline: "The ECU: tuning how everything ships.",
				Certifications: []Certification{
					{Title: "DevOps Certification", Description: "Git, Docker, AWS, Kubernetes", Image: "/assets/certificates/devops.jpg"},
				},
			},
			{
				Slug:    "data-structures",
				Title:   "Data Structures",
				Tagline: "The frame: everything else bolts onto it.",
				Certifications: []Certification{
					{Title: "Data Structures & Algorithms (C++)", Description: "Maps & Sets, Trees & Graphs, Sorting & Searching", Image: "/assets/certificates/dsa.jpg"},
				},
			},
		},
	}
}
