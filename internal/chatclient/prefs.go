package chatclient

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"sync"
)

// prefsKey is the fixed key the expand state persists under, kept from
// the storefront so existing saved state still loads.
const prefsKey = "expandedCategories"

// CategoryPrefs is the persisted expand/collapse state of the category
// tree. It loads once on init and saves on every change; leaving the
// category browsing context resets it.
type CategoryPrefs struct {
	mu       sync.Mutex
	path     string
	expanded map[string]bool
}

// LoadCategoryPrefs rehydrates the expand state from dir. A missing or
// unreadable file starts empty.
func LoadCategoryPrefs(dir string) *CategoryPrefs {
	p := &CategoryPrefs{
		path:     filepath.Join(dir, prefsKey+".json"),
		expanded: make(map[string]bool),
	}

	raw, err := os.ReadFile(p.path)
	if err != nil {
		return p
	}
	if err := json.Unmarshal(raw, &p.expanded); err != nil {
		p.expanded = make(map[string]bool)
	}
	return p
}

// Toggle flips one category and collapses its siblings, returning the
// new state of the toggled one.
func (p *CategoryPrefs) Toggle(categoryID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	next := !p.expanded[categoryID]
	for id := range p.expanded {
		p.expanded[id] = false
	}
	p.expanded[categoryID] = next
	p.save()
	return next
}

// Expand marks one category open without touching the others, used
// when navigation lands directly on a category page.
func (p *CategoryPrefs) Expand(categoryID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.expanded[categoryID] = true
	p.save()
}

// Expanded reports whether a category is open.
func (p *CategoryPrefs) Expanded(categoryID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.expanded[categoryID]
}

// Reset clears all expand state, for when navigation leaves the
// category browsing context.
func (p *CategoryPrefs) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.expanded = make(map[string]bool)
	p.save()
}

func (p *CategoryPrefs) save() {
	raw, err := json.Marshal(p.expanded)
	if err != nil {
		return
	}
	if err := os.WriteFile(p.path, raw, 0o644); err != nil {
		log.Printf("chatclient: failed to persist category prefs: %v", err)
	}
}
