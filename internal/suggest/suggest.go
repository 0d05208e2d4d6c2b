// Package suggest offers a "did you mean" fuzzy match against the
// executables visible on $PATH, printed as a second stderr line after a
// command-not-found error. Grounded on the devcmd/opal lineage's own use
// of fuzzysearch.RankFindFold for nearest-name suggestions
// (runtime/planner/planner.go's findClosestMatch).
package suggest

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Cache lazily lists every executable name on $PATH once and reuses the
// listing for subsequent lookups within the same shell process.
type Cache struct {
	once  sync.Once
	names []string
}

func (c *Cache) names_() []string {
	c.once.Do(func() {
		c.names = listPathExecutables()
	})
	return c.names
}

func listPathExecutables() []string {
	seen := make(map[string]bool)
	var names []string
	for _, dir := range filepath.SplitList(os.Getenv("PATH")) {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if e.IsDir() || seen[e.Name()] {
				continue
			}
			seen[e.Name()] = true
			names = append(names, e.Name())
		}
	}
	return names
}

// Closest returns the best fuzzy match for name among $PATH executables,
// or "" when the candidate set is empty or nothing ranks.
func (c *Cache) Closest(name string) string {
	candidates := c.names_()
	if len(candidates) == 0 {
		return ""
	}
	ranks := fuzzy.RankFindFold(name, candidates)
	if len(ranks) == 0 {
		return ""
	}
	best := ranks[0]
	for _, r := range ranks[1:] {
		if r.Distance < best.Distance {
			best = r
		}
	}
	if strings.EqualFold(best.Target, name) {
		return ""
	}
	return best.Target
}
