package keyboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPersistentReply(t *testing.T) {
	m := PersistentReply("pick one", []string{"A", "B"}, []string{"C"})

	assert.True(t, m.ResizeKeyboard)
	assert.True(t, m.IsPersistent)
	assert.Equal(t, "pick one", m.Placeholder)
	require.Len(t, m.ReplyKeyboard, 2)
	require.Len(t, m.ReplyKeyboard[0], 2)
	assert.Equal(t, "B", m.ReplyKeyboard[0][1].Text)
	assert.Equal(t, "C", m.ReplyKeyboard[1][0].Text)
}
