package metrics

import "strings"

// FileResult is the outcome of analyzing one source file.
type FileResult struct {
	// Contribution is the file's summed complexity score.
	Contribution float64
	// Functions is the number of functions the score is spread over.
	Functions int
	// LOC counts non-blank lines.
	LOC int
}

// Strategy analyzes a single source file. Implementations must be safe
// for concurrent use.
type Strategy interface {
	Name() string
	Analyze(path string, content []byte) FileResult
}

// countLOC returns the number of non-blank lines in content.
func countLOC(content []byte) int {
	loc := 0
	for _, line := range strings.Split(string(content), "\n") {
		if strings.TrimSpace(line) != "" {
			loc++
		}
	}
	return loc
}
