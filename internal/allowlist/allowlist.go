// Package allowlist decides which authenticated emails may use the
// service. The list lives in a plain text file, one email per line,
// with # comments. Matching is exact and case-sensitive.
package allowlist

import (
	"bufio"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/planfill/planfill-server/pkg/logger"
)

// Gate answers authorization checks against the configured file. The file
// is cached in memory and re-read when its mtime changes, so the list can
// be updated without a restart. When the file cannot be read the gate
// fails closed: nobody is authorized.
type Gate struct {
	path string

	mu      sync.RWMutex
	emails  map[string]struct{}
	modTime time.Time
	loaded  bool
}

func NewGate(path string) *Gate {
	g := &Gate{path: path}
	g.refresh()
	return g
}

// IsAuthorized reports whether email is on the allow-list.
func (g *Gate) IsAuthorized(email string) bool {
	if email == "" {
		return false
	}
	g.refresh()

	g.mu.RLock()
	defer g.mu.RUnlock()
	if !g.loaded {
		return false
	}
	_, ok := g.emails[email]
	return ok
}

// Len returns the number of loaded entries. Used by readiness reporting.
func (g *Gate) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.emails)
}

// refresh re-reads the file when its mtime moved since the last load.
func (g *Gate) refresh() {
	info, err := os.Stat(g.path)
	if err != nil {
		g.mu.Lock()
		if g.loaded {
			logger.Errorf("allowlist %s became unreadable, failing closed: %v", g.path, err)
		}
		g.loaded = false
		g.emails = nil
		g.mu.Unlock()
		return
	}

	g.mu.RLock()
	current := g.loaded && info.ModTime().Equal(g.modTime)
	g.mu.RUnlock()
	if current {
		return
	}

	f, err := os.Open(g.path)
	if err != nil {
		g.mu.Lock()
		g.loaded = false
		g.emails = nil
		g.mu.Unlock()
		logger.Errorf("allowlist %s open failed, failing closed: %v", g.path, err)
		return
	}
	defer f.Close()

	emails := make(map[string]struct{})
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		emails[line] = struct{}{}
	}
	if err := sc.Err(); err != nil {
		g.mu.Lock()
		g.loaded = false
		g.emails = nil
		g.mu.Unlock()
		logger.Errorf("allowlist %s read failed, failing closed: %v", g.path, err)
		return
	}

	g.mu.Lock()
	g.emails = emails
	g.modTime = info.ModTime()
	g.loaded = true
	g.mu.Unlock()
	logger.Infof("allowlist loaded: %d entries from %s", len(emails), g.path)
}
