// Package manifest parses npm package.json files and extracts dependency
// changes from unified diff patches, without requiring a repository
// checkout.
package manifest

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Manifest is the dependency-relevant subset of a package.json file.
type Manifest struct {
	Name             string            `json:"name"`
	Version          string            `json:"version"`
	Dependencies     map[string]string `json:"dependencies"`
	DevDependencies  map[string]string `json:"devDependencies"`
	PeerDependencies map[string]string `json:"peerDependencies"`
}

// Parse decodes a package.json document.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse package.json: %w", err)
	}
	return &m, nil
}

// All merges every dependency section into a single name to version
// range map. Runtime dependencies win on conflict.
func (m *Manifest) All() map[string]string {
	merged := make(map[string]string, len(m.Dependencies)+len(m.DevDependencies)+len(m.PeerDependencies))
	for name, ver := range m.PeerDependencies {
		merged[name] = ver
	}
	for name, ver := range m.DevDependencies {
		merged[name] = ver
	}
	for name, ver := range m.Dependencies {
		merged[name] = ver
	}
	return merged
}

// Has reports whether name appears in any dependency section.
func (m *Manifest) Has(name string) bool {
	if _, ok := m.Dependencies[name]; ok {
		return true
	}
	if _, ok := m.DevDependencies[name]; ok {
		return true
	}
	_, ok := m.PeerDependencies[name]
	return ok
}

// IsManifestPath reports whether a repository path is a package.json
// file outside of vendored directories. Matching ignores case, so
// Package.json commits are picked up too.
func IsManifestPath(path string) bool {
	lower := strings.ToLower(path)
	base := lower[strings.LastIndex(lower, "/")+1:]
	return base == "package.json" && !strings.Contains(lower, "node_modules/")
}
