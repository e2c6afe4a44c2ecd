// Package metrics computes source complexity snapshots for JavaScript
// and TypeScript codebases directly from git blobs, without cloning or
// checking anything out.
//
// Two strategies are available: a structural one that parses sources
// with tree-sitter and scores each function by its decision points, and
// a lightweight keyword heuristic that approximates the same signal
// with regular expressions. Both report a total contribution and a
// function count; a snapshot's average complexity is the ratio of the
// two.
package metrics
