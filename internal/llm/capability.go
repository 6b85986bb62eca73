package llm

import (
	"sort"
	"sync"
)

// Capability describes what a model accepts. ProviderModel optionally maps the
// requested id onto the backend's own model name.
type Capability struct {
	SystemPrompt  bool   `mapstructure:"system_prompt" json:"system_prompt"`
	Tools         bool   `mapstructure:"tools" json:"tools"`
	ProviderModel string `mapstructure:"provider_model" json:"provider_model,omitempty"`
}

// DefaultCapability applies to every model id not present in the table.
var DefaultCapability = Capability{SystemPrompt: true, Tools: true}

// DefaultProfiles lists the model ids known to lack a capability.
func DefaultProfiles() map[string]Capability {
	return map[string]Capability{
		"mistral.mistral-7b-instruct-v0:2": {SystemPrompt: false, Tools: false},
		"meta.llama3-70b-instruct-v1:0":    {SystemPrompt: true, Tools: false},
	}
}

// CapabilityTable maps model ids to capabilities. It is built once at startup
// and safe for concurrent reads.
type CapabilityTable struct {
	mu       sync.RWMutex
	profiles map[string]Capability
}

// NewCapabilityTable copies profiles into a new table.
func NewCapabilityTable(profiles map[string]Capability) *CapabilityTable {
	t := &CapabilityTable{profiles: make(map[string]Capability, len(profiles))}
	for id, c := range profiles {
		t.profiles[id] = c
	}
	return t
}

// Lookup returns the capability for id and whether it was listed.
func (t *CapabilityTable) Lookup(id string) (Capability, bool) {
	if t == nil {
		return DefaultCapability, false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	c, ok := t.profiles[id]
	if !ok {
		return DefaultCapability, false
	}
	return c, true
}

// Set replaces the capability for id.
func (t *CapabilityTable) Set(id string, c Capability) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.profiles[id] = c
}

// SupportsSystemPrompt reports whether id accepts a system instruction.
func (t *CapabilityTable) SupportsSystemPrompt(id string) bool {
	c, _ := t.Lookup(id)
	return c.SystemPrompt
}

// SupportsTools reports whether id accepts tool declarations.
func (t *CapabilityTable) SupportsTools(id string) bool {
	c, _ := t.Lookup(id)
	return c.Tools
}

// ProviderModel returns the backend model name configured for id, or "".
func (t *CapabilityTable) ProviderModel(id string) string {
	c, _ := t.Lookup(id)
	return c.ProviderModel
}

// IDs lists the configured model ids in sorted order.
func (t *CapabilityTable) IDs() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, 0, len(t.profiles))
	for id := range t.profiles {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
