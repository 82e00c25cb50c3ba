// Package visits is the privacy-conscious visitor tracking behind the admin
// statistics: addresses are only ever stored as salted hashes, Do Not Track
// is honoured, and records older than the retention window are purged.
package visits

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Zachkp/moto-portfolio/internal/db"
	"github.com/Zachkp/moto-portfolio/internal/logging"
	"github.com/Zachkp/moto-portfolio/internal/profile"
)

// DefaultRetention is how long visit records are kept.
const DefaultRetention = 365 * 24 * time.Hour

// Visit is one tracked page view.
type Visit struct {
	ID        int64     `json:"id"`
	HashedIP  string    `json:"hashed_ip"`
	UserAgent string    `json:"user_agent"`
	Path      string    `json:"path"`
	Role      string    `json:"role,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// RoleCount is the number of selections of one role.
type RoleCount struct {
	Role       string `json:"role"`
	Selections int64  `json:"selections"`
}

// Stats is the admin dashboard summary.
type Stats struct {
	TotalVisitors    int64       `json:"total_visitors"`
	UniqueVisitors   int64       `json:"unique_visitors"`
	VisitorsToday    int64       `json:"visitors_today"`
	VisitorsThisWeek int64       `json:"visitors_this_week"`
	TotalSelections  int64       `json:"total_selections"`
	Selections       []RoleCount `json:"selections"`
	RecentVisitors   []Visit     `json:"recent_visitors"`
}

// skipPrefixes are never tracked.
var skipPrefixes = []string{"/static/", "/images/", "/assets/", "/files/", "/admin", "/favicon", "/metrics", "/healthz", "/file-tree.json"}

// Tracker records visits and profile selections.
type Tracker struct {
	db   *db.DB
	salt string
	log  *zap.Logger
	now  func() time.Time

	wg sync.WaitGroup
}

// NewTracker creates a tracker. An empty salt is replaced by a random one,
// which makes hashes stable only for the life of the process.
func NewTracker(d *db.DB, salt string, log *zap.Logger) (*Tracker, error) {
	if salt == "" {
		b := make([]byte, 32)
		if _, err := rand.Read(b); err != nil {
			return nil, fmt.Errorf("generating hashing salt: %w", err)
		}
		salt = hex.EncodeToString(b)
	}
	return &Tracker{db: d, salt: salt, log: logging.OrNop(log), now: time.Now}, nil
}

// HashIP returns the truncated salted SHA-256 of ip; the same ip always
// gives the same hash under one salt.
func (t *Tracker) HashIP(ip string) string {
	h := sha256.New()
	h.Write([]byte(ip + t.salt))
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// Record stores one visit.
func (t *Tracker) Record(ctx context.Context, ip, userAgent, path, role string) error {
	_, err := t.db.ExecContext(ctx, `
		INSERT INTO visitors (hashed_ip, user_agent, path, role, timestamp)
		VALUES (?, ?, ?, ?, ?)
	`, t.HashIP(ip), userAgent, path, role, db.FormatTime(t.now()))
	if err != nil {
		return fmt.Errorf("recording visit: %w", err)
	}
	return nil
}

// RecordSelection stores a completed profile selection.
func (t *Tracker) RecordSelection(ctx context.Context, p profile.Normalized) error {
	_, err := t.db.ExecContext(ctx, `
		INSERT INTO profile_selections (profile_id, role, timestamp) VALUES (?, ?, ?)
	`, p.IDString(), p.Role, db.FormatTime(t.now()))
	if err != nil {
		return fmt.Errorf("recording selection: %w", err)
	}
	return nil
}

// OnSelection is a selection hook that logs instead of returning errors.
func (t *Tracker) OnSelection(ctx context.Context, p profile.Normalized) {
	if err := t.RecordSelection(ctx, p); err != nil {
		t.log.Warn("selection not recorded", zap.String("role", p.Role), zap.Error(err))
	}
}

// Middleware tracks page views in the background. roleOf reports the
// active role of the request once the handlers have run.
func (t *Tracker) Middleware(roleOf func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if !Trackable(path) || c.GetHeader("DNT") == "1" {
			c.Next()
			return
		}

		c.Next()

		role := ""
		if roleOf != nil {
			role = roleOf(c)
		}
		ip, ua := c.ClientIP(), c.GetHeader("User-Agent")
		t.wg.Add(1)
		go func() {
			defer t.wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := t.Record(ctx, ip, ua, path, role); err != nil {
				t.log.Warn("visit not recorded", zap.Error(err))
			}
		}()
	}
}

// Trackable reports whether path counts as a page view.
func Trackable(path string) bool {
	for _, prefix := range skipPrefixes {
		if strings.HasPrefix(path, prefix) {
			return false
		}
	}
	return true
}

// Wait blocks until background writes have finished.
func (t *Tracker) Wait() {
	t.wg.Wait()
}

// Stats gathers the dashboard summary.
func (t *Tracker) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{Selections: []RoleCount{}, RecentVisitors: []Visit{}}
	now := t.now().UTC()
	today := now.Format("2006-01-02")
	weekAgo := db.FormatTime(now.Add(-7 * 24 * time.Hour))

	counts := []struct {
		dst   *int64
		query string
		args  []any
	}{
		{&stats.TotalVisitors, `SELECT COUNT(*) FROM visitors`, nil},
		{&stats.UniqueVisitors, `SELECT COUNT(DISTINCT hashed_ip) FROM visitors`, nil},
		{&stats.VisitorsToday, `SELECT COUNT(*) FROM visitors WHERE DATE(timestamp) = ?`, []any{today}},
		{&stats.VisitorsThisWeek, `SELECT COUNT(*) FROM visitors WHERE timestamp >= ?`, []any{weekAgo}},
		{&stats.TotalSelections, `SELECT COUNT(*) FROM profile_selections`, nil},
	}
	for _, q := range counts {
		if err := t.db.QueryRowContext(ctx, q.query, q.args...).Scan(q.dst); err != nil {
			return nil, fmt.Errorf("counting visits: %w", err)
		}
	}

	rows, err := t.db.QueryContext(ctx, `
		SELECT role, COUNT(*) AS n FROM profile_selections
		GROUP BY role ORDER BY n DESC, role
	`)
	if err != nil {
		return nil, fmt.Errorf("counting selections: %w", err)
	}
	for rows.Next() {
		var rc RoleCount
		if err := rows.Scan(&rc.Role, &rc.Selections); err != nil {
			continue
		}
		stats.Selections = append(stats.Selections, rc)
	}
	rows.Close()

	rows, err = t.db.QueryContext(ctx, `
		SELECT id, hashed_ip, COALESCE(user_agent, ''), COALESCE(path, ''), role, timestamp
		FROM visitors
		ORDER BY timestamp DESC, id DESC
		LIMIT 50
	`)
	if err != nil {
		return nil, fmt.Errorf("listing visits: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var v Visit
		var ts db.Time
		if err := rows.Scan(&v.ID, &v.HashedIP, &v.UserAgent, &v.Path, &v.Role, &ts); err != nil {
			continue
		}
		v.Timestamp = ts.Time
		stats.RecentVisitors = append(stats.RecentVisitors, v)
	}
	return stats, rows.Err()
}

// Cleanup removes visits older than retention.
func (t *Tracker) Cleanup(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := db.FormatTime(t.now().Add(-retention))
	res, err := t.db.ExecContext(ctx, `DELETE FROM visitors WHERE timestamp < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purging visits: %w", err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		t.log.Info("privacy cleanup removed old visit records", zap.Int64("rows", n))
	}
	return n, nil
}

// StartCleanup purges once now and then every interval until ctx is done.
func (t *Tracker) StartCleanup(ctx context.Context, retention, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			if _, err := t.Cleanup(ctx, retention); err != nil {
				t.log.Error("visit cleanup failed", zap.Error(err))
			}
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
}
