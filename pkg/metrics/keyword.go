package metrics

import "regexp"

var (
	branchPattern   = regexp.MustCompile(`(?i)\b(if|for|while|case|catch)\b|&&|\|\|`)
	functionPattern = regexp.MustCompile(`\bfunction\b|=>`)
)

// Keyword approximates cyclomatic complexity by counting branching
// keywords and function markers with regular expressions. It is fast
// and dependency free, at the cost of counting keywords inside strings
// and comments.
type Keyword struct{}

func (Keyword) Name() string { return "keyword" }

// Analyze scores a file as its function count plus its branch keyword
// count. A file with branches but no recognizable function marker is
// averaged as one implicit function; the implicit function carries the
// branch score but adds nothing to it.
func (Keyword) Analyze(_ string, content []byte) FileResult {
	functions := len(functionPattern.FindAll(content, -1))
	branches := len(branchPattern.FindAll(content, -1))
	contribution := functions + branches
	if functions == 0 && branches > 0 {
		functions = 1
	}
	return FileResult{
		Contribution: float64(contribution),
		Functions:    functions,
		LOC:          countLOC(content),
	}
}
