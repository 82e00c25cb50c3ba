package profile

import (
	"errors"
	"fmt"
)

// ErrUnknownProfile is returned when an id is not in the catalog.
var ErrUnknownProfile = errors.New("unknown profile")

// Catalog is the ordered, read-only list of selectable profiles.
type Catalog struct {
	profiles []Profile
	byID     map[string]int
}

// NewCatalog builds a catalog. Order is display order; non-empty ids must
// be unique.
func NewCatalog(profiles []Profile) (*Catalog, error) {
	c := &Catalog{
		profiles: make([]Profile, len(profiles)),
		byID:     make(map[string]int, len(profiles)),
	}
	copy(c.profiles, profiles)
	for i, p := range c.profiles {
		if p.ID == "" {
			continue
		}
		if _, dup := c.byID[p.ID]; dup {
			return nil, fmt.Errorf("duplicate profile id %q", p.ID)
		}
		c.byID[p.ID] = i
	}
	return c, nil
}

// MustCatalog is NewCatalog for static input.
func MustCatalog(profiles []Profile) *Catalog {
	c, err := NewCatalog(profiles)
	if err != nil {
		panic(err)
	}
	return c
}

// All returns the profiles in display order.
func (c *Catalog) All() []Profile {
	out := make([]Profile, len(c.profiles))
	copy(out, c.profiles)
	return out
}

// Len returns the number of profiles.
func (c *Catalog) Len() int { return len(c.profiles) }

// Lookup finds a profile by id.
func (c *Catalog) Lookup(id string) (Profile, error) {
	i, ok := c.byID[id]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %q", ErrUnknownProfile, id)
	}
	return c.profiles[i], nil
}

// DefaultProfiles is the built-in catalog used when configuration has none.
func DefaultProfiles() []Profile {
	return []Profile{
		{
			ID:          "profile-1",
			Name:        "admin",
			Role:        RoleAdmin,
			Title:       "Controller",
			ColorScheme: "#fa7522ff",
			AvatarURL:   "/assets/profile/admin.png",
		},
		{
			ID:          "profile-2",
			Name:        "Recruiter",
			Role:        RoleRecruiter,
			Title:       "Business",
			ColorScheme: "#ffa500",
			AvatarURL:   "/assets/profile/gt650.jpg",
		},
		{
			ID:          "profile-3",
			Name:        "Stalker",
			Role:        "viewer",
			Title:       "Viewer",
			ColorScheme: "#ff0101ff",
			AvatarURL:   "/assets/profile/stalker.jpg",
		},
		{
			ID:          "profile-4",
			Role:        "anonymous",
			Title:       "Anonymous",
			ColorScheme: "#00d4aa",
			AvatarURL:   "/assets/profile/w175.avif",
			RedirectURL: "https://www.youtube.com/watch?v=xvFZjo5PgG0",
		},
	}
}
