// Package syncer reconciles stored metrics with the GitHub API in two
// sequential stages: repositories first, then accounts. Failures are per-item
// and never abort a stage; only a missing metrics client or a failed list
// aborts a run.
package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"git-insights/internal/github"
	"git-insights/internal/model"
)

// Number of items to sync in parallel within a stage.
const concurrency = 5

// AccountStore is the slice of the persistence layer the pipeline needs for
// accounts.
type AccountStore interface {
	Get(ctx context.Context, id uuid.UUID) (model.Account, error)
	List(ctx context.Context) ([]model.Account, error)
	Update(ctx context.Context, account model.Account) (model.Account, error)
}

// RepositoryStore is the slice of the persistence layer the pipeline needs
// for repositories.
type RepositoryStore interface {
	List(ctx context.Context) ([]model.Repository, error)
	Update(ctx context.Context, repo model.Repository) (model.Repository, error)
}

// MetricsClient fetches externally observed metrics.
type MetricsClient interface {
	RepoStats(ctx context.Context, owner, name string) (github.RepoStats, error)
	RepoClones(ctx context.Context, owner, name string) (int, error)
	RepoViews(ctx context.Context, owner, name string) (int, error)
	OrgFollowers(ctx context.Context, org string) (int, error)
}

// ClientFactory builds the metrics client for one run. A factory error is
// fatal for that run and aborts it before any stage starts.
type ClientFactory func() (MetricsClient, error)

// ItemResult records the outcome of one entity within a stage.
type ItemResult struct {
	ID   uuid.UUID
	Name string
	Err  error
}

// Syncer orchestrates the two-stage metrics pipeline.
type Syncer struct {
	accounts  AccountStore
	repos     RepositoryStore
	newClient ClientFactory
	logger    *slog.Logger
}

func New(accounts AccountStore, repos RepositoryStore, newClient ClientFactory, logger *slog.Logger) *Syncer {
	return &Syncer{
		accounts:  accounts,
		repos:     repos,
		newClient: newClient,
		logger:    logger,
	}
}

// Run executes one full sync: build a client, Stage 1 (repositories), then
// Stage 2 (accounts). Stage 2 runs regardless of how many individual items
// failed in Stage 1.
func (s *Syncer) Run(ctx context.Context) error {
	client, err := s.newClient()
	if err != nil {
		return fmt.Errorf("metrics client construction failed: %w", err)
	}

	repoResults, err := s.syncRepositories(ctx, client)
	if err != nil {
		return fmt.Errorf("repository stage: %w", err)
	}
	s.report("repositories", repoResults)

	accountResults, err := s.syncAccounts(ctx, client)
	if err != nil {
		return fmt.Errorf("account stage: %w", err)
	}
	s.report("accounts", accountResults)

	return nil
}

// syncRepositories walks every stored repository and folds freshly observed
// metrics into its counters. The returned error is only non-nil when the
// listing itself fails.
func (s *Syncer) syncRepositories(ctx context.Context, client MetricsClient) ([]ItemResult, error) {
	repos, err := s.repos.List(ctx)
	if err != nil {
		return nil, err
	}

	var mu sync.Mutex
	results := make([]ItemResult, 0, len(repos))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for _, repo := range repos {
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			err := s.syncRepository(gctx, client, repo)
			if err != nil {
				s.logger.Error("repository sync failed",
					"repo_id", repo.ID, "repo", repo.Name, "error", err)
			}
			mu.Lock()
			results = append(results, ItemResult{ID: repo.ID, Name: repo.Name, Err: err})
			mu.Unlock()
			return nil
		})
	}

	// Goroutines always return nil; per-item failures live in results.
	_ = g.Wait()
	return results, nil
}

func (s *Syncer) syncRepository(ctx context.Context, client MetricsClient, repo model.Repository) error {
	account, err := s.accounts.Get(ctx, repo.AccountID)
	if err != nil {
		return fmt.Errorf("resolve owning account %s: %w", repo.AccountID, err)
	}

	stats, err := client.RepoStats(ctx, account.Name, repo.Name)
	if err != nil {
		return fmt.Errorf("fetch stats: %w", err)
	}
	repo.Forks += stats.Forks
	repo.Stars += stats.Stars
	repo.Subscribers += stats.Subscribers

	clones, err := client.RepoClones(ctx, account.Name, repo.Name)
	if err != nil {
		return fmt.Errorf("fetch clone traffic: %w", err)
	}
	repo.Clones += clones

	views, err := client.RepoViews(ctx, account.Name, repo.Name)
	if err != nil {
		return fmt.Errorf("fetch view traffic: %w", err)
	}
	repo.Views += int64(views)

	s.logger.Info("repository metrics observed",
		"repo_id", repo.ID,
		"repo", repo.Name,
		"clones", repo.Clones,
		"forks", repo.Forks,
		"stars", repo.Stars,
		"subscribers", repo.Subscribers,
		"views", repo.Views,
	)

	if _, err := s.repos.Update(ctx, repo); err != nil {
		return fmt.Errorf("persist metrics: %w", err)
	}
	return nil
}

// syncAccounts folds freshly observed follower counts into every stored
// account.
func (s *Syncer) syncAccounts(ctx context.Context, client MetricsClient) ([]ItemResult, error) {
	accounts, err := s.accounts.List(ctx)
	if err != nil {
		return nil, err
	}

	var mu sync.Mutex
	results := make([]ItemResult, 0, len(accounts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for _, account := range accounts {
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			err := s.syncAccount(gctx, client, account)
			if err != nil {
				s.logger.Error("account sync failed",
					"account_id", account.ID, "account", account.Name, "error", err)
			}
			mu.Lock()
			results = append(results, ItemResult{ID: account.ID, Name: account.Name, Err: err})
			mu.Unlock()
			return nil
		})
	}

	_ = g.Wait()
	return results, nil
}

func (s *Syncer) syncAccount(ctx context.Context, client MetricsClient, account model.Account) error {
	followers, err := client.OrgFollowers(ctx, account.Name)
	if err != nil {
		return fmt.Errorf("fetch org stats: %w", err)
	}
	account.Followers += followers

	s.logger.Info("account metrics observed",
		"account_id", account.ID,
		"account", account.Name,
		"followers", account.Followers,
	)

	if _, err := s.accounts.Update(ctx, account); err != nil {
		return fmt.Errorf("persist metrics: %w", err)
	}
	return nil
}

func (s *Syncer) report(stage string, results []ItemResult) {
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	s.logger.Info("stage finished", "stage", stage, "total", len(results), "failed", failed)
}
