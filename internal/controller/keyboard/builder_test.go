package keyboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGrid(t *testing.T) {
	kb := NewBuilder().
		Grid(2, Button("A", "a"), Button("B", "b"), Button("C", "c")).
		Row().
		Row(Button("Назад", "back")).
		Build()

	assert.Len(t, kb.InlineKeyboard, 3)
	assert.Len(t, kb.InlineKeyboard[0], 2)
	assert.Len(t, kb.InlineKeyboard[1], 1)
	assert.Equal(t, "c", kb.InlineKeyboard[1][0].CallbackData)
	assert.Equal(t, "Назад", kb.InlineKeyboard[2][0].Text)
}
