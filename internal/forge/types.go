// Package forge talks to the GitHub REST contents API: it loads and saves
// content files, uploads media and validates push webhooks.
package forge

import "time"

// Config configures a GitHubClient.
type Config struct {
	APIURL  string // defaults to https://api.github.com
	Owner   string
	Repo    string
	Branch  string // empty means the repository default branch
	Token   string
	Timeout time.Duration

	CommitterName  string
	CommitterEmail string
}

// PushEvent is the part of a GitHub push webhook the editor cares about.
type PushEvent struct {
	Branch   string
	HeadSHA  string
	Pusher   string
	Paths    []string // added, modified or removed files, deduplicated
	Received time.Time
}

type contentResponse struct {
	Type        string `json:"type"`
	Path        string `json:"path"`
	SHA         string `json:"sha"`
	Encoding    string `json:"encoding"`
	Content     string `json:"content"`
	DownloadURL string `json:"download_url"`
}

type putContentRequest struct {
	Message   string     `json:"message"`
	Content   string     `json:"content"`
	SHA       string     `json:"sha,omitempty"`
	Branch    string     `json:"branch,omitempty"`
	Committer *committer `json:"committer,omitempty"`
}

type committer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type putContentResponse struct {
	Content contentResponse `json:"content"`
	Commit  struct {
		SHA string `json:"sha"`
	} `json:"commit"`
}

type apiError struct {
	Message string `json:"message"`
}
