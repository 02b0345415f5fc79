package model

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The store builds statements from Columns and binds Params/Fields
// positionally, so the three must agree on order and length.
func TestAccountDescriptorAlignment(t *testing.T) {
	a := &Account{Name: "acme", Followers: 42}

	cols := a.Columns()
	params := a.Params()
	require.Len(t, params, len(cols))

	assert.Equal(t, []string{"name", "followers"}, cols)
	assert.Equal(t, []any{"acme", 42}, params)

	// id + columns + created_at, updated_at, deleted_at
	assert.Len(t, a.Fields(), len(cols)+4)
}

func TestRepositoryDescriptorAlignment(t *testing.T) {
	acctID := uuid.New()
	r := &Repository{
		Name:        "core",
		AccountID:   acctID,
		Clones:      5,
		Forks:       2,
		Stars:       10,
		Subscribers: 3,
		Views:       30,
	}

	cols := r.Columns()
	params := r.Params()
	require.Len(t, params, len(cols))

	assert.Equal(t,
		[]string{"name", "account_id", "clones", "forks", "stars", "subscribers", "views"},
		cols)
	assert.Equal(t, []any{"core", acctID, 5, 2, 10, 3, int64(30)}, params)
	assert.Len(t, r.Fields(), len(cols)+4)
}

func TestFieldsPointIntoReceiver(t *testing.T) {
	var a Account
	fields := a.Fields()

	*(fields[1].(*string)) = "acme"
	*(fields[2].(*int)) = 7
	now := time.Now()
	*(fields[5].(**time.Time)) = &now

	assert.Equal(t, "acme", a.Name)
	assert.Equal(t, 7, a.Followers)
	require.NotNil(t, a.DeletedAt)
	assert.Equal(t, now, *a.DeletedAt)
}
