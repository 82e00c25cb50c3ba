package server

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Zachkp/moto-portfolio/internal/logging"
)

// AdminCredentials protect the visitor data. With an empty password only
// the admin profile is required.
type AdminCredentials struct {
	Username string
	Password string
}

const (
	adminCookie       = "admin_token"
	adminCookieMaxAge = 3600 * 24
	adminLoginPath    = "/admin/login"
)

func generateAdminToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("generating admin token: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

func (s *Server) loginRequired() bool {
	return s.admin.Password != ""
}

// requireAdminLogin checks the admin token cookie when a password is set.
func (s *Server) requireAdminLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.loginRequired() {
			c.Next()
			return
		}
		token, err := c.Cookie(adminCookie)
		if err != nil || subtle.ConstantTimeCompare([]byte(token), []byte(s.adminToken)) != 1 {
			redirect(c, adminLoginPath)
			c.Abort()
			return
		}
		c.Next()
	}
}

// clientHash identifies the caller in logs without recording the address.
func (s *Server) clientHash(c *gin.Context) string {
	if s.tracker == nil {
		return "unknown"
	}
	return s.tracker.HashIP(c.ClientIP())
}

// Admin login page
func (s *Server) handleLoginPage(c *gin.Context) {
	if !s.loginRequired() {
		redirect(c, "/admin/dashboard")
		return
	}
	c.HTML(http.StatusOK, "admin-login.html", gin.H{
		"title": "Admin Login",
	})
}

// Admin login handler
func (s *Server) handleLogin(c *gin.Context) {
	log := logging.FromContext(c, s.log)
	if !s.loginRequired() {
		redirect(c, "/admin/dashboard")
		return
	}

	userOK := subtle.ConstantTimeCompare([]byte(c.PostForm("username")), []byte(s.admin.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(c.PostForm("password")), []byte(s.admin.Password)) == 1
	if !userOK || !passOK {
		log.Warn("failed admin login", zap.String("client", s.clientHash(c)))
		c.HTML(http.StatusUnauthorized, "admin-login.html", gin.H{
			"title": "Admin Login",
			"error": "Invalid credentials",
		})
		return
	}

	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(adminCookie, s.adminToken, adminCookieMaxAge, "/admin", "", s.secureCookies, true)
	log.Info("admin login", zap.String("client", s.clientHash(c)))
	redirect(c, "/admin/dashboard")
}

// Admin logout
func (s *Server) handleLogout(c *gin.Context) {
	c.SetCookie(adminCookie, "", -1, "/admin", "", s.secureCookies, true)
	logging.FromContext(c, s.log).Info("admin logout", zap.String("client", s.clientHash(c)))
	redirect(c, adminLoginPath)
}
