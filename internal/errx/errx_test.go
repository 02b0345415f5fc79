package errx

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestE(t *testing.T) {
	t.Run("returns nil for nil error", func(t *testing.T) {
		assert.NoError(t, E("store.Get", NotFound, nil))
	})

	t.Run("wraps the cause", func(t *testing.T) {
		cause := errors.New("no rows")
		err := E("store.Get", NotFound, cause)

		assert.ErrorIs(t, err, cause)
		assert.Equal(t, "store.Get: no rows", err.Error())
	})
}

func TestKindOf(t *testing.T) {
	cause := errors.New("duplicate key")

	t.Run("reads the kind from the chain", func(t *testing.T) {
		err := fmt.Errorf("create account: %w", E("store.Create", Conflict, cause))
		assert.Equal(t, Conflict, KindOf(err))
	})

	t.Run("outermost kind wins when nested", func(t *testing.T) {
		err := E("syncer.Run", Internal, E("store.Get", NotFound, cause))
		assert.Equal(t, Internal, KindOf(err))
	})

	t.Run("unknown for plain errors", func(t *testing.T) {
		assert.Equal(t, Unknown, KindOf(cause))
	})
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "NotFound", NotFound.String())
	assert.Equal(t, "Kind(99)", Kind(99).String())
}
