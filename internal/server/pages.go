package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Zachkp/moto-portfolio/internal/contact"
	"github.com/Zachkp/moto-portfolio/internal/content"
	"github.com/Zachkp/moto-portfolio/internal/filetree"
)

// pageData is the common payload of the landing pages.
func (s *Server) pageData(c *gin.Context, title string) gin.H {
	return gin.H{
		"title":    title,
		"profile":  sessionRouter(c).Profile(),
		"about":    s.content.About,
		"projects": s.content.Projects,
		"pages":    s.content.Pages,
	}
}

// Recruiter landing page
func (s *Server) handleRecruiter(c *gin.Context) {
	c.HTML(http.StatusOK, "recruiter.html", s.pageData(c, "Spec Sheet"))
}

// Default portfolio landing page
func (s *Server) handlePortfolio(c *gin.Context) {
	c.HTML(http.StatusOK, "portfolio.html", s.pageData(c, "Portfolio"))
}

// Certification pages
func (s *Server) handleCertification(c *gin.Context) {
	page, err := s.content.Page(c.Param("slug"))
	if errors.Is(err, content.ErrUnknownPage) {
		c.HTML(http.StatusNotFound, "certification.html", gin.H{
			"title": "Not found",
			"error": "No certification page by that name.",
			"pages": s.content.Pages,
		})
		return
	}
	data := s.pageData(c, page.Title)
	data["page"] = page
	c.HTML(http.StatusOK, "certification.html", data)
}

// Privacy policy
func (s *Server) handlePrivacy(c *gin.Context) {
	c.HTML(http.StatusOK, "privacy.html", gin.H{
		"title":    "Privacy Policy",
		"tracking": s.tracker != nil,
	})
}

// HTMX contact form fragment
func (s *Server) handleContactForm(c *gin.Context) {
	c.HTML(http.StatusOK, "contact.html", gin.H{
		"title": "Contact Me",
	})
}

// Contact form submission. Failures render an error fragment, never a 5xx.
func (s *Server) handleContact(c *gin.Context) {
	if s.contact == nil {
		c.HTML(http.StatusOK, "contact-error.html", gin.H{
			"error": "The contact form is not available right now.",
		})
		return
	}

	err := s.contact.Submit(c.Request.Context(), contact.Message{
		Name:  c.PostForm("fullName"),
		Email: c.PostForm("email"),
		Body:  c.PostForm("message"),
	})
	switch {
	case errors.Is(err, contact.ErrInvalidForm):
		c.HTML(http.StatusOK, "contact-error.html", gin.H{
			"error": "Please fill in your name, a valid email address and a message.",
		})
	case err != nil:
		c.HTML(http.StatusOK, "contact-error.html", gin.H{
			"error": "Sorry, there was an error sending your message. Please try again later.",
		})
	default:
		c.HTML(http.StatusOK, "contact-success.html", gin.H{
			"success": "Thank you for your message! I'll get back to you soon.",
		})
	}
}

// handleTreeDocument serves the file tree in its bare array form.
func (s *Server) handleTreeDocument(c *gin.Context) {
	tree := filetree.LoadOrEmpty(c.Request.Context(), s.tree, s.log)
	c.JSON(http.StatusOK, tree)
}
