// Package pkg provides the core libraries for depmine dependency-removal mining.
//
// # Overview
//
// Depmine mines popular repositories for commits that removed an npm
// dependency and measures how code complexity changed around each
// removal. The pkg directory is organized as:
//
//  1. [httputil] - Resilient HTTP transport (retry, backoff, pacing)
//  2. [cache] - File-backed response cache
//  3. [integrations] - External API clients (GitHub REST/GraphQL, OSV)
//  4. [manifest] - package.json parsing and patch diff extraction
//  5. [metrics] - Blob-based complexity snapshots
//  6. [miner] - Discovery, survey, and mining orchestration
//  7. [vuln] - Persistent vulnerability lookups
//  8. [export] - JSON/CSV run persistence
//
// # Architecture
//
// The typical data flow through depmine:
//
//	Repository Search
//	         ↓
//	Manifest Survey (batched GraphQL, per-repo fallback)
//	         ↓
//	Commit Scan (manifest-touching commits, newest first)
//	         ↓
//	Dependency-Diff Extraction (patch text)
//	         ↓
//	Complexity Snapshots (parent vs commit tree)
//	         ↓
//	Candidate Records (JSON / CSV)
package pkg
