package metrics

import (
	"path/filepath"
	"sync"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

// functionKinds are the tree-sitter node kinds that introduce a new
// function scope in JavaScript and TypeScript grammars.
var functionKinds = map[string]bool{
	"function_declaration":           true,
	"function_expression":            true,
	"arrow_function":                 true,
	"method_definition":              true,
	"generator_function":             true,
	"generator_function_declaration": true,
}

// decisionKinds are the node kinds that add a cyclomatic decision point.
var decisionKinds = map[string]bool{
	"if_statement":       true,
	"for_statement":      true,
	"for_in_statement":   true,
	"while_statement":    true,
	"do_statement":       true,
	"switch_case":        true,
	"catch_clause":       true,
	"ternary_expression": true,
}

// Structural computes per-function cyclomatic complexity by parsing
// sources with tree-sitter. Each function scores one plus its decision
// points; logical && and || operators count as decisions. Files that
// fail to parse fall back to the keyword heuristic.
type Structural struct {
	js, ts, tsx *parserPool
	fallback    Keyword
}

// NewStructural creates a Structural strategy with grammars for
// JavaScript, TypeScript, and TSX.
func NewStructural() *Structural {
	return &Structural{
		js:  newParserPool(sitter.NewLanguage(tree_sitter_javascript.Language())),
		ts:  newParserPool(sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript())),
		tsx: newParserPool(sitter.NewLanguage(tree_sitter_typescript.LanguageTSX())),
	}
}

func (s *Structural) Name() string { return "structural" }

func (s *Structural) Analyze(path string, content []byte) FileResult {
	pool := s.poolFor(path)
	if pool == nil {
		return s.fallback.Analyze(path, content)
	}

	parser := pool.get()
	defer pool.put(parser)

	tree := parser.Parse(content, nil)
	if tree == nil {
		return s.fallback.Analyze(path, content)
	}
	defer tree.Close()

	result := FileResult{LOC: countLOC(content)}
	s.walk(tree.RootNode(), content, &result)
	return result
}

// poolFor picks the grammar by file extension. The JSX dialect is part
// of the plain JavaScript grammar; TSX needs its own.
func (s *Structural) poolFor(path string) *parserPool {
	switch filepath.Ext(path) {
	case ".js", ".jsx", ".mjs", ".cjs":
		return s.js
	case ".ts":
		return s.ts
	case ".tsx":
		return s.tsx
	}
	return nil
}

// walk visits every node looking for function scopes. Nested functions
// are scored independently, so decision points inside them are excluded
// from the enclosing function's score.
func (s *Structural) walk(node *sitter.Node, src []byte, result *FileResult) {
	if functionKinds[node.Kind()] {
		result.Functions++
		result.Contribution += 1 + float64(countDecisions(node, src))
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		s.walk(node.Child(i), src, result)
	}
}

func countDecisions(fn *sitter.Node, src []byte) int {
	count := 0
	for i := uint(0); i < fn.ChildCount(); i++ {
		child := fn.Child(i)
		if functionKinds[child.Kind()] {
			continue
		}
		if isDecision(child, src) {
			count++
		}
		count += countDecisions(child, src)
	}
	return count
}

func isDecision(node *sitter.Node, src []byte) bool {
	kind := node.Kind()
	if decisionKinds[kind] {
		return true
	}
	if kind != "binary_expression" {
		return false
	}
	op := node.ChildByFieldName("operator")
	if op == nil {
		return false
	}
	text := string(src[op.StartByte():op.EndByte()])
	return text == "&&" || text == "||"
}

// parserPool recycles parser instances across files. Parsers are not
// safe for concurrent use, so each Analyze call leases its own.
type parserPool struct {
	lang *sitter.Language
	pool sync.Pool
}

func newParserPool(lang *sitter.Language) *parserPool {
	p := &parserPool{lang: lang}
	p.pool = sync.Pool{
		New: func() any {
			parser := sitter.NewParser()
			parser.SetLanguage(lang)
			return parser
		},
	}
	return p
}

func (p *parserPool) get() *sitter.Parser  { return p.pool.Get().(*sitter.Parser) }
func (p *parserPool) put(s *sitter.Parser) { p.pool.Put(s) }
