package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCapabilityTable_Defaults(t *testing.T) {
	tab := NewCapabilityTable(DefaultProfiles())

	assert.False(t, tab.SupportsSystemPrompt("mistral.mistral-7b-instruct-v0:2"))
	assert.False(t, tab.SupportsTools("mistral.mistral-7b-instruct-v0:2"))

	assert.True(t, tab.SupportsSystemPrompt("meta.llama3-70b-instruct-v1:0"))
	assert.False(t, tab.SupportsTools("meta.llama3-70b-instruct-v1:0"))

	assert.True(t, tab.SupportsSystemPrompt("us.anthropic.claude-3-7-sonnet-20250219-v1:0"))
	assert.True(t, tab.SupportsTools("us.anthropic.claude-3-7-sonnet-20250219-v1:0"))
}

func TestCapabilityTable_InjectedProfiles(t *testing.T) {
	tab := NewCapabilityTable(map[string]Capability{
		"cohere.command-r-v1:0": {SystemPrompt: true, Tools: false, ProviderModel: "gemini-2.5-pro"},
	})
	assert.False(t, tab.SupportsTools("cohere.command-r-v1:0"))
	assert.Equal(t, "gemini-2.5-pro", tab.ProviderModel("cohere.command-r-v1:0"))
	// Entries absent from an injected table fall back to the default set.
	assert.True(t, tab.SupportsTools("mistral.mistral-7b-instruct-v0:2"))

	tab.Set("new-model", Capability{})
	assert.False(t, tab.SupportsSystemPrompt("new-model"))
	assert.Equal(t, []string{"cohere.command-r-v1:0", "new-model"}, tab.IDs())
}

func TestCapabilityTable_NilUsesDefault(t *testing.T) {
	var tab *CapabilityTable
	assert.True(t, tab.SupportsSystemPrompt("anything"))
	assert.True(t, tab.SupportsTools("anything"))
}
