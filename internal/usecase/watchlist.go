package usecase

import (
	"sort"
	"strings"
	"sync"
)

// Watchlist is the shared symbol set driving the generation loop.
// Safe for concurrent reads (cycle snapshot) and writes (client
// watchlist updates).
type Watchlist struct {
	mu      sync.RWMutex
	symbols map[string]struct{}
}

// NewWatchlist seeds the list with the given symbols.
func NewWatchlist(symbols ...string) *Watchlist {
	w := &Watchlist{symbols: make(map[string]struct{})}
	w.Add(symbols...)
	return w
}

// Add inserts symbols, normalized to upper case.
func (w *Watchlist) Add(symbols ...string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, s := range symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s != "" {
			w.symbols[s] = struct{}{}
		}
	}
}

// Remove drops symbols from the list.
func (w *Watchlist) Remove(symbols ...string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, s := range symbols {
		delete(w.symbols, strings.ToUpper(strings.TrimSpace(s)))
	}
}

// Contains reports membership.
func (w *Watchlist) Contains(symbol string) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	_, ok := w.symbols[strings.ToUpper(symbol)]
	return ok
}

// Symbols returns a sorted snapshot of the current list.
func (w *Watchlist) Symbols() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]string, 0, len(w.symbols))
	for s := range w.symbols {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Len returns the current size.
func (w *Watchlist) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.symbols)
}
