// Package gh asks the hosting service about pull requests through the gh CLI.
package gh

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/israelmalagutti/gee/internal/errors"
)

// PullRequest is the subset of `gh pr view --json` gee reads
type PullRequest struct {
	Number  int    `json:"number"`
	State   string `json:"state"`
	Title   string `json:"title"`
	IsDraft bool   `json:"isDraft"`
}

// IsOpen reports whether the pull request is still under review
func (p PullRequest) IsOpen() bool {
	return p.State == "OPEN"
}

// Client runs gh against the upstream repository
type Client struct {
	// Repo is the upstream owner/name
	Repo string
	// User is the account owning the fork branches
	User string

	run func(args ...string) ([]byte, error)
}

// NewClient creates a Client that shells out to gh
func NewClient(repo, user string) *Client {
	return &Client{Repo: repo, User: user, run: runGH}
}

func runGH(args ...string) ([]byte, error) {
	start := time.Now()
	cmd := exec.Command("gh", args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	log.Debug().Strs("args", args).Dur("took", time.Since(start)).Err(err).Msg("gh")
	if err != nil {
		return stdout.Bytes(), &errors.GitError{
			Tool:   "gh",
			Args:   args,
			Err:    err,
			Output: strings.TrimSpace(stderr.String()),
		}
	}
	return stdout.Bytes(), nil
}

// headRef names branch the way `gh pr view` expects for a fork
func (c *Client) headRef(branch string) string {
	owner, _, _ := strings.Cut(c.Repo, "/")
	if c.User == "" || c.User == owner {
		return branch
	}
	return c.User + ":" + branch
}

// OpenPullRequests returns the open pull requests whose head is branch
func (c *Client) OpenPullRequests(branch string) ([]PullRequest, error) {
	args := []string{"pr", "view", c.headRef(branch), "--json", "number,state,title,isDraft"}
	if c.Repo != "" {
		args = append(args, "--repo", c.Repo)
	}
	out, err := c.run(args...)
	if err != nil {
		var gitErr *errors.GitError
		if errors.As(err, &gitErr) && strings.Contains(gitErr.Output, "no pull requests found") {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up pull requests for %s: %w", branch, err)
	}

	var pr PullRequest
	if err := json.Unmarshal(out, &pr); err != nil {
		return nil, fmt.Errorf("failed to parse gh output: %w", err)
	}
	if !pr.IsOpen() {
		return nil, nil
	}
	return []PullRequest{pr}, nil
}
