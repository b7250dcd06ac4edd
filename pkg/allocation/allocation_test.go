package allocation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusPredicates(t *testing.T) {
	t.Run("should accept drafts only while in draft", func(t *testing.T) {
		assert.True(t, StatusDraft.CanSaveDraft())
		assert.False(t, StatusFinalized.CanSaveDraft())
	})

	t.Run("should allow finalizing from both states", func(t *testing.T) {
		assert.True(t, StatusDraft.CanFinalize())
		assert.True(t, StatusFinalized.CanFinalize())
	})

	t.Run("should allow deleting allocations only once finalized", func(t *testing.T) {
		assert.False(t, StatusDraft.CanDeleteAll())
		assert.True(t, StatusFinalized.CanDeleteAll())
	})
}
