package server

import (
	"errors"
	"html/template"
	"net/http"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Zachkp/moto-portfolio/internal/filetree"
	"github.com/Zachkp/moto-portfolio/internal/logging"
	"github.com/Zachkp/moto-portfolio/internal/preview"
	"github.com/Zachkp/moto-portfolio/internal/visits"
)

// terminalRow is one rendered line of the admin terminal.
type terminalRow struct {
	Index    int
	Node     filetree.VisibleNode
	Icon     filetree.Icon
	Open     bool
	Selected bool
	Indent   int
}

// viewerData is the open file modal.
type viewerData struct {
	Kind filetree.ViewerKind
	Src  string
	Name string
	URL  string
	HTML template.HTML
}

// terminal returns the session's terminal, loading its tree on first use.
func (s *Server) terminal(c *gin.Context) *filetree.Navigator {
	t := s.terminals.Get(sessionID(c))
	t.once.Do(func() {
		t.nav.Load(filetree.LoadOrEmpty(c.Request.Context(), s.tree, logging.FromContext(c, s.log)))
	})
	return t.nav
}

func (s *Server) terminalData(c *gin.Context, nav *filetree.Navigator) gin.H {
	snap := nav.Snapshot()
	rows := make([]terminalRow, len(snap.Visible))
	for i, n := range snap.Visible {
		rows[i] = terminalRow{
			Index:    i,
			Node:     n,
			Icon:     filetree.IconFor(n.Name, n.Type),
			Open:     n.IsDir() && snap.Expanded.Has(n.Path),
			Selected: i == snap.Selected,
			Indent:   n.Depth * 16,
		}
	}
	data := gin.H{
		"title":   "Admin Terminal",
		"profile": sessionRouter(c).Profile(),
		"state":   snap.State.String(),
		"rows":    rows,
	}
	if snap.Viewer != nil {
		data["viewer"] = s.viewer(*snap.Viewer, logging.FromContext(c, s.log))
	}
	return data
}

// viewer prepares the modal for v. Text files are rendered on the server;
// anything that cannot be read shows a placeholder.
func (s *Server) viewer(v filetree.Viewer, log *zap.Logger) *viewerData {
	d := &viewerData{Kind: v.Kind, Src: v.Src, Name: v.Node.Name, URL: "/files" + v.Src}
	if v.Kind != filetree.ViewerText {
		return d
	}
	html, err := s.renderer.Render(v.Src)
	if err != nil {
		log.Debug("preview unavailable", zap.String("src", v.Src), zap.Error(err))
		html = preview.Placeholder(v.Src)
	}
	d.HTML = html
	return d
}

// Admin terminal page
func (s *Server) handleAdmin(c *gin.Context) {
	c.HTML(http.StatusOK, "admin.html", s.terminalData(c, s.terminal(c)))
}

// handleTerminalKey applies one key of the keyboard contract and returns the
// refreshed terminal.
func (s *Server) handleTerminalKey(c *gin.Context) {
	key, ok := filetree.ParseKey(c.PostForm("key"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown key"})
		return
	}
	nav := s.terminal(c)
	nav.HandleKey(key)
	c.HTML(http.StatusOK, "terminal.html", s.terminalData(c, nav))
}

// handleTerminalOpen is a click on a row: select it and open it.
func (s *Server) handleTerminalOpen(c *gin.Context) {
	index, err := strconv.Atoi(c.PostForm("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "index must be a number"})
		return
	}
	nav := s.terminal(c)
	nav.Open(index)
	c.HTML(http.StatusOK, "terminal.html", s.terminalData(c, nav))
}

func (s *Server) handleTerminalViewer(c *gin.Context) {
	snap := s.terminal(c).Snapshot()
	if snap.Viewer == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.HTML(http.StatusOK, "viewer.html", gin.H{
		"viewer": s.viewer(*snap.Viewer, logging.FromContext(c, s.log)),
	})
}

// handleFile serves a file from the content directory.
func (s *Server) handleFile(c *gin.Context) {
	full, err := s.renderer.Resolve(c.Param("filepath"))
	if err != nil {
		if errors.Is(err, preview.ErrOutsideRoot) {
			logging.FromContext(c, s.log).Warn("rejected file path", zap.String("path", c.Param("filepath")))
		}
		c.Status(http.StatusNotFound)
		return
	}
	if info, err := os.Stat(full); err != nil || info.IsDir() {
		c.Status(http.StatusNotFound)
		return
	}
	c.File(full)
}

// Admin dashboard
func (s *Server) handleDashboard(c *gin.Context) {
	stats, err := s.stats(c)
	if err != nil {
		c.HTML(http.StatusServiceUnavailable, "admin-error.html", gin.H{
			"error": err.Error(),
		})
		return
	}
	c.HTML(http.StatusOK, "admin-dashboard.html", gin.H{
		"title": "Dashboard",
		"stats": stats,
	})
}

// Admin API endpoint for HTMX/AJAX
func (s *Server) handleStats(c *gin.Context) {
	stats, err := s.stats(c)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Admin statistics export
func (s *Server) handleExportStats(c *gin.Context) {
	stats, err := s.stats(c)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	c.Header("Content-Disposition", "attachment; filename=admin-stats.json")
	c.JSON(http.StatusOK, stats)
}

// Privacy cleanup: purge visits past retention now
func (s *Server) handlePrivacyCleanup(c *gin.Context) {
	if s.tracker == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": errTrackingDisabled.Error()})
		return
	}
	n, err := s.tracker.Cleanup(c.Request.Context(), s.retention)
	if err != nil {
		logging.FromContext(c, s.log).Error("privacy cleanup failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cleanup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Privacy cleanup complete", "removed": n})
}

var errTrackingDisabled = errors.New("visitor tracking is disabled")

func (s *Server) stats(c *gin.Context) (*visits.Stats, error) {
	if s.tracker == nil {
		return nil, errTrackingDisabled
	}
	stats, err := s.tracker.Stats(c.Request.Context())
	if err != nil {
		logging.FromContext(c, s.log).Error("loading admin stats", zap.Error(err))
		return nil, errors.New("failed to load statistics")
	}
	return stats, nil
}
