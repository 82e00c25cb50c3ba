package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Zachkp/moto-portfolio/internal/gauge"
	"github.com/Zachkp/moto-portfolio/internal/logging"
	"github.com/Zachkp/moto-portfolio/internal/profile"
	"github.com/Zachkp/moto-portfolio/internal/selector"
)

// sseEvent is one Server-Sent Event of the ignite stream.
type sseEvent struct {
	name string
	data any
}

// doneEvent ends the ignite stream.
type doneEvent struct {
	Route   string `json:"route"`
	Trigger string `json:"trigger"`
}

// Profile selector page. A transition whose gauge never started belongs
// to a page that is gone, so it is dropped here.
func (s *Server) handleSelector(c *gin.Context) {
	s.selectors.Get(sessionID(c)).Abandon()
	c.HTML(http.StatusOK, "selector.html", s.selectorData(c, nil))
}

func (s *Server) selectorData(c *gin.Context, err error) gin.H {
	snap := s.selectors.Get(sessionID(c)).Snapshot()
	data := gin.H{
		"title":         "Who's riding?",
		"profiles":      s.catalog.All(),
		"selected":      snap.Selected,
		"transitioning": snap.Transitioning,
		"active":        sessionRouter(c).Profile(),
	}
	if err != nil {
		data["error"] = err.Error()
	}
	return data
}

// renderGrid answers a selector action with the refreshed profile grid.
func (s *Server) renderGrid(c *gin.Context, err error) {
	status := http.StatusOK
	switch {
	case errors.Is(err, profile.ErrUnknownProfile):
		status = http.StatusNotFound
	case errors.Is(err, selector.ErrTransitionInProgress):
		status = http.StatusConflict
	}
	c.HTML(status, "selector-grid.html", s.selectorData(c, err))
}

func (s *Server) handleChoose(c *gin.Context) {
	_, err := s.selectors.Get(sessionID(c)).Choose(c.PostForm("id"))
	s.renderGrid(c, err)
}

func (s *Server) handleCancel(c *gin.Context) {
	s.selectors.Get(sessionID(c)).Cancel()
	s.renderGrid(c, nil)
}

func (s *Server) handleConfirm(c *gin.Context) {
	out, err := s.selectors.Get(sessionID(c)).Confirm(c.PostForm("id"))
	s.respondOutcome(c, out, err)
}

// Keyboard activation: Enter on a profile card
func (s *Server) handleActivate(c *gin.Context) {
	out, err := s.selectors.Get(sessionID(c)).Activate(c.PostForm("id"))
	s.respondOutcome(c, out, err)
}

func (s *Server) respondOutcome(c *gin.Context, out selector.Outcome, err error) {
	if err != nil {
		s.renderGrid(c, err)
		return
	}
	switch out.Kind {
	case selector.OutcomeRedirect:
		redirect(c, out.URL)
	case selector.OutcomeTransition:
		c.HTML(http.StatusOK, "gauge.html", gin.H{
			"profile":    out.Profile,
			"transition": out.Transition,
			"curve":      s.gauge.Curve,
		})
	default:
		s.renderGrid(c, nil)
	}
}

// handleIgnite streams the loading gauge of the pending transition as
// Server-Sent Events: "rpm" frames, then a single "done" naming the landing
// route. Completion persists the profile. If the client goes away first the
// gauge is disposed and the transition aborted.
func (s *Server) handleIgnite(c *gin.Context) {
	log := logging.FromContext(c, s.log)
	sel := s.selectors.Get(sessionID(c))
	rt := sessionRouter(c)

	gen, ok := sel.Pending()
	if want := c.Query("transition"); ok && want != "" && want != strconv.FormatUint(gen, 10) {
		ok = false
	}
	if !ok {
		c.JSON(http.StatusConflict, gin.H{"error": selector.ErrNotTransitioning.Error()})
		return
	}

	events := make(chan sseEvent, 64)
	gone := make(chan struct{})
	send := func(ev sseEvent, wait bool) {
		if wait {
			select {
			case events <- ev:
			case <-gone:
			}
			return
		}
		select {
		case events <- ev:
		default:
		}
	}

	persistCtx := context.WithoutCancel(c.Request.Context())
	ctrl := gauge.NewController(s.gauge, append([]gauge.Option{gauge.WithLogger(log)}, s.gaugeOpts...)...)
	defer ctrl.Dispose()
	defer close(gone)

	err := ctrl.Start(
		func(f gauge.Frame) {
			send(sseEvent{name: "rpm", data: f}, f.Phase == gauge.PhaseDone)
		},
		func(trigger gauge.Trigger) {
			nav, err := sel.Complete(persistCtx, gen, rt)
			if err != nil {
				send(sseEvent{name: "error", data: gin.H{"error": err.Error()}}, true)
				return
			}
			send(sseEvent{name: "done", data: doneEvent{Route: nav.To.String(), Trigger: string(trigger)}}, true)
		},
	)
	if err != nil {
		sel.Abort(gen)
		log.Error("starting gauge", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not start the engine"})
		return
	}

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	for {
		select {
		case <-c.Request.Context().Done():
			if sel.Abort(gen) {
				log.Info("client left during ignition, transition aborted", zap.Uint64("transition", gen))
			}
			return
		case ev := <-events:
			c.SSEvent(ev.name, ev.data)
			c.Writer.Flush()
			if ev.name != "rpm" {
				return
			}
		}
	}
}

// handleSwitch forgets the session profile and returns to the picker.
func (s *Server) handleSwitch(c *gin.Context) {
	nav := sessionRouter(c).SwitchProfile(c.Request.Context())
	sel := s.selectors.Get(sessionID(c))
	sel.Abandon()
	sel.Cancel()
	redirect(c, nav.To.String())
}
