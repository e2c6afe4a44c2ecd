package github

import "time"

// Repo identifies a repository together with the metadata the miner
// filters on.
type Repo struct {
	Owner         string `json:"owner"`
	Name          string `json:"name"`
	Stars         int    `json:"stars"`
	Forks         int    `json:"forks"`
	DefaultBranch string `json:"default_branch"`
	Archived      bool   `json:"archived"`
	Fork          bool   `json:"fork"`
}

// FullName returns the owner/name slug.
func (r Repo) FullName() string {
	return r.Owner + "/" + r.Name
}

// Commit is one entry from a commit listing.
type Commit struct {
	SHA     string    `json:"sha"`
	Date    time.Time `json:"date"`
	Message string    `json:"message"`
	Parents []string  `json:"parents"`
}

// CommitFile is one changed file inside a commit, including its unified
// diff patch when the API provides one. Patch is empty for binary files
// and for very large diffs.
type CommitFile struct {
	Filename string `json:"filename"`
	Status   string `json:"status"`
	Patch    string `json:"patch"`
}

// CommitDetail is a single commit with its full file list.
type CommitDetail struct {
	SHA     string       `json:"sha"`
	TreeSHA string       `json:"tree_sha"`
	Date    time.Time    `json:"date"`
	Message string       `json:"message"`
	Parents []string     `json:"parents"`
	Files   []CommitFile `json:"files"`
}

// TreeEntry is one object in a recursive git tree listing.
type TreeEntry struct {
	Path string `json:"path"`
	Type string `json:"type"`
	SHA  string `json:"sha"`
	Size int    `json:"size"`
}

// Tree is a recursive tree listing. Truncated is set when the listing
// exceeded the API's entry limit and is incomplete.
type Tree struct {
	SHA       string      `json:"sha"`
	Entries   []TreeEntry `json:"entries"`
	Truncated bool        `json:"truncated"`
}
