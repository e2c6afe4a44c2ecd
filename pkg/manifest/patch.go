package manifest

import (
	"regexp"
	"sort"
)

// depLinePattern matches added or removed dependency entries in a
// unified diff of a package.json file. JSON formatting inside manifests
// is stable enough that a line-level pattern is reliable; the sign
// prefix distinguishes removals from additions.
var depLinePattern = regexp.MustCompile(`(?m)^([-+])\s*"([^"]+)":\s*"([^"]+)"`)

// Change describes one dependency entry that lost its old declaration
// in a patch. VersionAfter is empty when the entry was wholly removed;
// when set, the same name was re-added with a new range (a bump or
// replacement). Pure additions produce no Change.
type Change struct {
	Name          string `json:"name"`
	VersionBefore string `json:"version_before"`
	VersionAfter  string `json:"version_after,omitempty"`
	Path          string `json:"path"`
}

// Removed reports whether the dependency was dropped outright rather
// than re-added under a different version.
func (c Change) Removed() bool { return c.VersionAfter == "" }

// ExtractChanges scans the unified diff of one manifest file for
// dependency declarations. Lines beginning with - feed a removed map
// and lines beginning with + an added map; when a name repeats on the
// same side the last occurrence wins. Every removed name yields one
// Change, ordered by name.
func ExtractChanges(path, patch string) []Change {
	removed := make(map[string]string)
	added := make(map[string]string)

	for _, m := range depLinePattern.FindAllStringSubmatch(patch, -1) {
		sign, name, version := m[1], m[2], m[3]
		if sign == "-" {
			removed[name] = version
		} else {
			added[name] = version
		}
	}

	changes := make([]Change, 0, len(removed))
	for name, before := range removed {
		changes = append(changes, Change{
			Name:          name,
			VersionBefore: before,
			VersionAfter:  added[name],
			Path:          path,
		})
	}
	sort.Slice(changes, func(i, j int) bool { return changes[i].Name < changes[j].Name })
	return changes
}
