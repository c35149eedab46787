// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"

	"github.com/kraklabs/gpp/internal/errs"
	"github.com/kraklabs/gpp/internal/logx"
	"github.com/kraklabs/gpp/internal/types"
)

// GitBackend implements Backend over the `git` CLI, run in a fixed
// working directory (the repository's work tree, whose object-store link
// internal/ctxmux binds to the active store). It never imports a git
// library — every operation is
// a subprocess invocation, per spec.md §4.3.
type GitBackend struct {
	workdir string
	logger  zerolog.Logger
}

// NewGitBackend returns a GitBackend rooted at workdir. workdir need not
// exist yet; Bootstrap creates it.
func NewGitBackend(workdir string) *GitBackend {
	return &GitBackend{workdir: workdir, logger: logx.WithComponent("backend.git")}
}

// run executes `git <args...>` in the backend's working directory,
// capturing stdout/stderr and surfacing stderr in the returned error —
// the same shape as the teacher's GitExecutor.Run.
func (g *GitBackend) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = g.workdir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := logx.WithNodeID(g.logger, "")
	start.Debug().Strs("args", args).Msg("running git command")

	err := cmd.Run()
	if err != nil {
		if ctx.Err() != nil {
			return "", errs.NewIOError("Git command canceled", ctx.Err().Error(), "", ctx.Err())
		}
		stderrStr := strings.TrimSpace(stderr.String())
		detail := stderrStr
		if detail == "" {
			detail = err.Error()
		}
		return "", errs.NewIOError(fmt.Sprintf("git %s failed", args[0]), detail,
			"Check that git is installed and the working tree is in a valid state", err)
	}

	return strings.TrimSpace(stdout.String()), nil
}

// CreateTree runs `git add -A` then `git write-tree`.
func (g *GitBackend) CreateTree(ctx context.Context) (string, error) {
	if _, err := g.run(ctx, "add", "-A"); err != nil {
		return "", err
	}
	return g.run(ctx, "write-tree")
}

// CreateCommit runs `git commit-tree <tree> -p <parent>... -m <message>`
// then updates HEAD to the resulting commit.
func (g *GitBackend) CreateCommit(ctx context.Context, treeID string, parents []types.NodeId, author types.Author, message string) (types.NodeId, error) {
	args := []string{"commit-tree", treeID, "-m", message}
	for _, p := range parents {
		args = append(args, "-p", string(p))
	}

	env := []string{
		"GIT_AUTHOR_NAME=" + author.Name,
		"GIT_AUTHOR_EMAIL=" + author.Email,
		"GIT_COMMITTER_NAME=" + author.Name,
		"GIT_COMMITTER_EMAIL=" + author.Email,
	}

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = g.workdir
	cmd.Env = append(cmd.Environ(), env...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		stderrStr := strings.TrimSpace(stderr.String())
		if stderrStr == "" {
			stderrStr = err.Error()
		}
		return "", errs.NewIOError("git commit-tree failed", stderrStr,
			"Check GIT_AUTHOR_NAME/GIT_AUTHOR_EMAIL are resolvable", err)
	}

	commitID := types.NodeId(strings.TrimSpace(stdout.String()))
	if _, err := g.run(ctx, "update-ref", "HEAD", string(commitID)); err != nil {
		return "", err
	}
	return commitID, nil
}

// ReadRef runs `git rev-parse --verify <ref>`. A ref that doesn't
// resolve yields ("", nil) rather than an error, since "no such ref" is
// an expected, non-exceptional outcome (e.g. an empty remote cache).
func (g *GitBackend) ReadRef(ctx context.Context, ref string) (types.NodeId, error) {
	out, err := g.run(ctx, "rev-parse", "--verify", ref)
	if err != nil {
		return "", nil //nolint:nilerr // unresolved ref is a valid outcome, not a failure
	}
	return types.NodeId(out), nil
}

// PushUpdateRef runs `git push <url> <local>:<targetRef>`.
func (g *GitBackend) PushUpdateRef(ctx context.Context, remoteURL string, localTip types.NodeId, targetRef string) error {
	refspec := fmt.Sprintf("%s:%s", localTip, targetRef)
	_, err := g.run(ctx, "push", remoteURL, refspec)
	return err
}

// CheckoutNode runs `git read-tree -u --reset <tree>`, restoring the
// working tree to treeID. The caller has already ensured the active
// store is the one this node belongs to.
func (g *GitBackend) CheckoutNode(ctx context.Context, treeID string) error {
	_, err := g.run(ctx, "read-tree", "-u", "--reset", treeID)
	return err
}

// IsRepoEmpty runs `git rev-parse --verify HEAD`; failure means no
// commits exist yet.
func (g *GitBackend) IsRepoEmpty(ctx context.Context) (bool, error) {
	if _, err := g.run(ctx, "rev-parse", "--verify", "HEAD"); err != nil {
		return true, nil
	}
	return false, nil
}

// Bootstrap runs `git init` in the backend's working directory.
func (g *GitBackend) Bootstrap(ctx context.Context) error {
	_, err := g.run(ctx, "init")
	return err
}
