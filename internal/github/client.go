// Package github wraps the go-github client with the four fetches the sync
// pipeline needs: repository stats, clone traffic, view traffic, and
// organization stats.
package github

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/google/go-github/v62/github"
	"golang.org/x/oauth2"

	"git-insights/internal/errx"
)

// RepoStats is the subset of repository metrics the pipeline accumulates.
type RepoStats struct {
	Stars       int
	Forks       int
	Subscribers int
}

// Client is a wrapper around the go-github client.
type Client struct {
	gh     *github.Client
	logger *slog.Logger
}

// NewClient builds an authenticated client. When caCertPath is non-empty the
// outbound TLS trust is pinned to that bundle; failing to load it is fatal for
// the caller's whole run, not a per-item condition.
func NewClient(token, caCertPath string, logger *slog.Logger) (*Client, error) {
	const op = "github.NewClient"

	ctx := context.Background()
	if caCertPath != "" {
		base, err := transportWithCA(caCertPath)
		if err != nil {
			return nil, errx.E(op, errx.Unavailable, err)
		}
		ctx = context.WithValue(ctx, oauth2.HTTPClient, &http.Client{Transport: base})
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tc := oauth2.NewClient(ctx, ts)

	return &Client{
		gh:     github.NewClient(tc),
		logger: logger,
	}, nil
}

func transportWithCA(path string) (*http.Transport, error) {
	pem, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read CA bundle: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, errors.New("CA bundle contains no usable certificates")
	}
	return &http.Transport{TLSClientConfig: &tls.Config{RootCAs: pool}}, nil
}

// RepoStats fetches stars, forks, and subscribers for a repository.
func (c *Client) RepoStats(ctx context.Context, owner, name string) (RepoStats, error) {
	c.logger.Debug("fetching repository stats", "owner", owner, "repo", name)
	repo, _, err := c.gh.Repositories.Get(ctx, owner, name)
	if err != nil {
		return RepoStats{}, err
	}
	return RepoStats{
		Stars:       repo.GetStargazersCount(),
		Forks:       repo.GetForksCount(),
		Subscribers: repo.GetSubscribersCount(),
	}, nil
}

// RepoClones fetches the clone-traffic count for a repository.
func (c *Client) RepoClones(ctx context.Context, owner, name string) (int, error) {
	c.logger.Debug("fetching clone traffic", "owner", owner, "repo", name)
	clones, _, err := c.gh.Repositories.ListTrafficClones(ctx, owner, name, nil)
	if err != nil {
		return 0, err
	}
	return clones.GetCount(), nil
}

// RepoViews fetches the view-traffic count for a repository.
func (c *Client) RepoViews(ctx context.Context, owner, name string) (int, error) {
	c.logger.Debug("fetching view traffic", "owner", owner, "repo", name)
	views, _, err := c.gh.Repositories.ListTrafficViews(ctx, owner, name, nil)
	if err != nil {
		return 0, err
	}
	return views.GetCount(), nil
}

// OrgFollowers fetches the follower count for an organization account.
func (c *Client) OrgFollowers(ctx context.Context, org string) (int, error) {
	c.logger.Debug("fetching organization stats", "org", org)
	o, _, err := c.gh.Organizations.Get(ctx, org)
	if err != nil {
		return 0, err
	}
	return o.GetFollowers(), nil
}
