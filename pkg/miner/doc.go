// Package miner orchestrates the mining run: it discovers candidate
// repositories, surveys their manifests, and scans manifest-touching
// commits for dependency removals, pairing each removal with before and
// after complexity snapshots and known-vulnerability counts.
//
// Mining within one repository is strictly sequential because the
// candidate cap and recency cutoff depend on ordered traversal of the
// commit list. Across repositories a bounded worker pool runs scans in
// parallel; results arrive in completion order.
package miner
