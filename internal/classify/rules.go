package classify

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed default_rules.yaml
var defaultRulesYAML []byte

type ruleFile struct {
	Rules []Rule `yaml:"rules"`
}

// DefaultRules returns the built-in rule set shipped with the agent.
func DefaultRules() []Rule {
	rules, err := parseRules(defaultRulesYAML)
	if err != nil {
		// The embedded file is validated by tests; a parse failure here means
		// a broken build, not bad user input.
		panic(fmt.Sprintf("classify: embedded default rules are invalid: %v", err))
	}
	return rules
}

// LoadRules reads an ordered rule list from a YAML file. An empty path
// returns the built-in defaults.
func LoadRules(path string) ([]Rule, error) {
	if path == "" {
		return DefaultRules(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rules file: %w", err)
	}
	rules, err := parseRules(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return rules, nil
}

func parseRules(data []byte) ([]Rule, error) {
	var f ruleFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return f.Rules, nil
}
