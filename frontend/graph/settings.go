package graph

import (
	"github.com/cottand/fql/frontend/semantic"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
	"os"
)

// Settings configure a Database
type Settings struct {
	// InternalPrelude packages are analyzed without any environment, in order
	InternalPrelude []string `yaml:"internal_prelude"`
	// Prelude packages are analyzed with the exports of every bootstrap package before them,
	// so order matters: a prelude package sees InternalPrelude and the Prelude entries
	// listed earlier, never later ones. Bootstrap packages do not receive the merged prelude.
	Prelude []string `yaml:"prelude"`
	// DisablePrelude stops the prelude from being injected into other packages
	DisablePrelude bool `yaml:"disable_prelude"`
	// Features are the analyzer features to enable, like semantic.FeatureOperatorConstraints
	Features     []string `yaml:"features"`
	PrettyErrors bool     `yaml:"pretty_errors"`
}

// DefaultSettings bootstrap the prelude embedded in this package
func DefaultSettings() Settings {
	return Settings{
		InternalPrelude: []string{"internal/builtins"},
		Prelude:         []string{"universe"},
	}
}

// LoadSettings reads Settings from a YAML file. Fields missing from the file
// keep their value in DefaultSettings.
func LoadSettings(path string) (Settings, error) {
	settings := DefaultSettings()
	content, err := os.ReadFile(path)
	if err != nil {
		return settings, errors.Wrap(err, "read settings")
	}
	if err := yaml.Unmarshal(content, &settings); err != nil {
		return settings, errors.Wrapf(err, "parse settings %s", path)
	}
	return settings, nil
}

func (s Settings) semanticConfig() semantic.Config {
	features := make(map[string]bool, len(s.Features))
	for _, f := range s.Features {
		features[f] = true
	}
	return semantic.Config{Features: features, PrettyErrors: s.PrettyErrors}
}

// bootstrap lists the internal prelude followed by the prelude
func (s Settings) bootstrap() []string {
	return append(append([]string{}, s.InternalPrelude...), s.Prelude...)
}
