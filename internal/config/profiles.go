package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"smartgoal/internal/llm"
)

// ProfilesFile is the on-disk shape of the model capability table.
type ProfilesFile struct {
	// ReplaceDefaults drops the built-in profiles instead of overlaying them.
	ReplaceDefaults bool           `mapstructure:"replace_defaults"`
	Models          []ModelProfile `mapstructure:"models"`
}

type ModelProfile struct {
	ID            string `mapstructure:"id"`
	SystemPrompt  bool   `mapstructure:"system_prompt"`
	Tools         bool   `mapstructure:"tools"`
	ProviderModel string `mapstructure:"provider_model"`
}

// LoadCapabilities builds the capability table. An empty path yields the
// built-in profiles.
func LoadCapabilities(path string) (*llm.CapabilityTable, error) {
	profiles := llm.DefaultProfiles()
	if strings.TrimSpace(path) == "" {
		return llm.NewCapabilityTable(profiles), nil
	}
	file, err := ReadProfiles(path)
	if err != nil {
		return nil, err
	}
	if file.ReplaceDefaults {
		profiles = map[string]llm.Capability{}
	}
	for _, m := range file.Models {
		profiles[m.ID] = llm.Capability{
			SystemPrompt:  m.SystemPrompt,
			Tools:         m.Tools,
			ProviderModel: m.ProviderModel,
		}
	}
	return llm.NewCapabilityTable(profiles), nil
}

// ReadProfiles reads and validates a YAML or JSON profiles file.
func ReadProfiles(path string) (ProfilesFile, error) {
	v := viper.New()
	v.SetConfigFile(path)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		v.SetConfigType("yaml")
	default:
		v.SetConfigType("json")
	}
	if err := v.ReadInConfig(); err != nil {
		return ProfilesFile{}, fmt.Errorf("read model profiles %s: %w", path, err)
	}
	if err := ValidateProfiles(v.AllSettings()); err != nil {
		return ProfilesFile{}, err
	}
	var file ProfilesFile
	if err := v.Unmarshal(&file); err != nil {
		return ProfilesFile{}, fmt.Errorf("decode model profiles: %w", err)
	}
	return file, nil
}
