package generator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitSystem(t *testing.T) {
	system, turns := SplitSystem([]Message{
		{Role: RoleSystem, Content: "ground on context"},
		{Role: RoleUser, Content: "hi"},
		{Role: RoleSystem, Content: "be brief"},
		{Role: RoleAssistant, Content: "hello"},
	})

	assert.Equal(t, "ground on context\n\nbe brief", system)
	assert.Equal(t, []Message{
		{Role: RoleUser, Content: "hi"},
		{Role: RoleAssistant, Content: "hello"},
	}, turns)
}

func TestNewGenerateOptions(t *testing.T) {
	def := NewGenerateOptions()
	assert.Equal(t, float32(0.3), def.Temperature)
	assert.Equal(t, 1000, def.MaxTokens)

	custom := NewGenerateOptions(WithTemperature(0.7), WithMaxTokens(50))
	assert.Equal(t, float32(0.7), custom.Temperature)
	assert.Equal(t, 50, custom.MaxTokens)
}
