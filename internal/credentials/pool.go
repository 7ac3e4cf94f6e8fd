// Package credentials manages the pool of interchangeable provider API keys.
package credentials

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrNoCredentials is returned when the pool would be empty.
var ErrNoCredentials = errors.New("no credentials available")

// Pool holds an ordered sequence of credentials and the index of the active
// one. Rotation only cycles the index; entries are never removed. The pool is
// not internally synchronized; callers serialize access per crawl worker.
type Pool struct {
	keys  []string
	index int
}

// NewPool builds a Pool from the given keys. Blank entries are dropped.
func NewPool(keys []string) (*Pool, error) {
	cleaned := make([]string, 0, len(keys))
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		cleaned = append(cleaned, k)
	}
	if len(cleaned) == 0 {
		return nil, ErrNoCredentials
	}
	return &Pool{keys: cleaned}, nil
}

// Load reads a JSON array of API keys from path and builds a Pool.
func Load(path string) (*Pool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read credentials file: %w", err)
	}
	var keys []string
	if err := json.Unmarshal(data, &keys); err != nil {
		return nil, fmt.Errorf("parse credentials file: %w", err)
	}
	return NewPool(keys)
}

// Current returns the active credential.
func (p *Pool) Current() string {
	return p.keys[p.index]
}

// Rotate advances to the next credential modulo the pool size. It reports
// whether rotation changed the active credential; a pool of one entry never
// changes.
func (p *Pool) Rotate() bool {
	if len(p.keys) <= 1 {
		return false
	}
	p.index = (p.index + 1) % len(p.keys)
	return true
}

// Index returns the zero-based position of the active credential.
func (p *Pool) Index() int {
	return p.index
}

// Size returns the number of credentials in the pool.
func (p *Pool) Size() int {
	return len(p.keys)
}
