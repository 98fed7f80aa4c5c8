package keyboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInlineButtonsRows(t *testing.T) {
	markup := InlineButtonsRows(
		[]InlineBtn{{Text: "🎲 Random pick", Unique: "rand"}},
		nil,
		[]InlineBtn{{Text: "Breakfast", Unique: "menu", Data: "A"}, {Text: "Dinner", Unique: "menu", Data: "B"}},
	)
	require.NotNil(t, markup)
	require.Len(t, markup.InlineKeyboard, 2)
	assert.Len(t, markup.InlineKeyboard[1], 2)

	btn := markup.InlineKeyboard[1][1]
	assert.Equal(t, "Dinner", btn.Text)
	assert.Equal(t, "menu", btn.Unique)
	assert.Equal(t, "B", btn.Data)
}

func TestInlineButtonsRowsEmpty(t *testing.T) {
	assert.Nil(t, InlineButtonsRows())
	assert.Nil(t, InlineButtonsRows(nil, []InlineBtn{}))
}
