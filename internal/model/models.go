// Package model defines the tracked entity kinds and their storage
// descriptors. The descriptor methods (Table, Columns, Params, Fields, Key)
// bind each kind to its table shape; the generic store in internal/store
// consumes them through the store.Entity constraint, so adding a kind means
// adding a struct with these five methods and nothing else.
package model

import (
	"time"

	"github.com/google/uuid"
)

// Account is a tracked GitHub organization account. Accounts own repositories.
type Account struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Followers int        `json:"followers"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

func (a *Account) Table() string { return "accounts" }

// Columns lists the mutable columns in statement order. Params and Fields
// must stay aligned with it.
func (a *Account) Columns() []string { return []string{"name", "followers"} }

func (a *Account) Params() []any { return []any{a.Name, a.Followers} }

// Fields returns scan destinations for a full row:
// id, mutable columns, created_at, updated_at, deleted_at.
func (a *Account) Fields() []any {
	return []any{&a.ID, &a.Name, &a.Followers, &a.CreatedAt, &a.UpdatedAt, &a.DeletedAt}
}

func (a *Account) Key() uuid.UUID { return a.ID }

// Repository is a tracked repository belonging to an Account. Metric counters
// are owned by the sync pipeline and the PATCH endpoint.
type Repository struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	AccountID   uuid.UUID  `json:"account_id"`
	Clones      int        `json:"clones"`
	Forks       int        `json:"forks"`
	Stars       int        `json:"stars"`
	Subscribers int        `json:"subscribers"`
	Views       int64      `json:"views"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
}

func (r *Repository) Table() string { return "repositories" }

func (r *Repository) Columns() []string {
	return []string{"name", "account_id", "clones", "forks", "stars", "subscribers", "views"}
}

func (r *Repository) Params() []any {
	return []any{r.Name, r.AccountID, r.Clones, r.Forks, r.Stars, r.Subscribers, r.Views}
}

func (r *Repository) Fields() []any {
	return []any{
		&r.ID, &r.Name, &r.AccountID, &r.Clones, &r.Forks, &r.Stars, &r.Subscribers,
		&r.Views, &r.CreatedAt, &r.UpdatedAt, &r.DeletedAt,
	}
}

func (r *Repository) Key() uuid.UUID { return r.ID }
