package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Zachkp/moto-portfolio/internal/logging"
	"github.com/Zachkp/moto-portfolio/internal/profile"
	"github.com/Zachkp/moto-portfolio/internal/router"
	"github.com/Zachkp/moto-portfolio/internal/session"
)

// SessionCookie names the browser session cookie.
const SessionCookie = "sid"

const (
	sidKey    = "sid"
	routerKey = "router"
)

// sessionMiddleware makes sure the browser has a session id and attaches a
// session router for this request. The cookie has no Max-Age, so it ends
// with the browser session.
func (s *Server) sessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		sid, err := c.Cookie(SessionCookie)
		if err == nil {
			_, err = uuid.Parse(sid)
		}
		if err != nil {
			sid = uuid.NewString()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(SessionCookie, sid, 0, "/", "", s.secureCookies, true)
		}
		c.Set(sidKey, sid)

		log := logging.FromContext(c, s.log)
		opts := []router.Option{router.WithLogger(log)}
		if s.tracker != nil {
			opts = append(opts, router.WithSelectionHook(s.tracker.OnSelection))
		}
		c.Set(routerKey, router.New(session.NewProfileStore(s.backend, sid, log), opts...))
		c.Next()
	}
}

// restorePage resolves the session profile and redirects when the request
// cannot be served as is: no profile outside the picker, or the bare root
// with a profile.
func (s *Server) restorePage() gin.HandlerFunc {
	return func(c *gin.Context) {
		rt := sessionRouter(c)
		if rt.State() == router.StateUnresolved {
			if nav := rt.Restore(c.Request.Context(), c.Request.URL.Path); nav != nil {
				redirect(c, nav.To.String())
				c.Abort()
				return
			}
		}
		c.Next()
	}
}

// requireRole lets only the given role through. Other profiles are sent to
// their own landing page; non-page requests are refused.
func (s *Server) requireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := sessionRouter(c).Profile()
		if p != nil && p.Role == role {
			c.Next()
			return
		}
		if c.Request.Method == http.MethodGet && c.FullPath() == string(profile.LandingRouteFor(role)) {
			to := profile.RouteSelector
			if p != nil {
				to = profile.LandingRouteFor(p.Role)
			}
			redirect(c, to.String())
			c.Abort()
			return
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": role + " profile required"})
	}
}

func sessionID(c *gin.Context) string {
	return c.GetString(sidKey)
}

func sessionRouter(c *gin.Context) *router.Router {
	return c.MustGet(routerKey).(*router.Router)
}

// activeRole reports the role the request ran under, for visit tracking.
func activeRole(c *gin.Context) string {
	v, ok := c.Get(routerKey)
	if !ok {
		return ""
	}
	if p := v.(*router.Router).Profile(); p != nil {
		return p.Role
	}
	return ""
}

// redirect navigates without leaving the current URL in history. HTMX
// requests get an HX-Redirect header instead of a 3xx.
func redirect(c *gin.Context, to string) {
	if c.GetHeader("HX-Request") == "true" {
		c.Header("HX-Redirect", to)
		c.Status(http.StatusOK)
		return
	}
	code := http.StatusFound
	if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
		code = http.StatusSeeOther
	}
	c.Redirect(code, to)
}
