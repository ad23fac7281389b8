package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	domain "github.com/donaldgifford/fundgrube-watcher/pkg/types"
)

// ruleEntry is one rule as written in the rules file. The legacy include and
// price keys are accepted as aliases of term and max_price.
type ruleEntry struct {
	Term     *string  `json:"term"      yaml:"term"`
	Include  *string  `json:"include"   yaml:"include"`
	MaxPrice *float64 `json:"max_price" yaml:"max_price"`
	Price    *float64 `json:"price"     yaml:"price"`
}

// LoadRules reads the rules file at path. The document is either a list of
// rules or a mapping with a "rules" list; JSON and YAML are both accepted.
// Environment variables in the file are expanded before parsing.
func LoadRules(path string) ([]domain.Rule, error) {
	data, err := os.ReadFile(path) //nolint:gosec // rules path from trusted CLI argument
	if err != nil {
		return nil, &Error{Path: path, Err: fmt.Errorf("reading rules file: %w", err)}
	}

	rules, err := ParseRules([]byte(os.ExpandEnv(string(data))))
	if err != nil {
		return nil, &Error{Path: path, Err: err}
	}
	return rules, nil
}

// ParseRules decodes and validates a rules document.
func ParseRules(data []byte) ([]domain.Rule, error) {
	if json.Valid(data) {
		entries, err := decodeJSONRules(data)
		if err != nil {
			return nil, err
		}
		return toRules(entries)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing rules: %w", err)
	}
	if len(doc.Content) == 0 {
		return nil, errors.New("rules file is empty")
	}

	var entries []ruleEntry
	root := doc.Content[0]
	switch root.Kind {
	case yaml.SequenceNode:
		if err := root.Decode(&entries); err != nil {
			return nil, fmt.Errorf("parsing rules: %w", err)
		}
	case yaml.MappingNode:
		var wrapped struct {
			Rules []ruleEntry `yaml:"rules"`
		}
		if err := root.Decode(&wrapped); err != nil {
			return nil, fmt.Errorf("parsing rules: %w", err)
		}
		entries = wrapped.Rules
	default:
		return nil, fmt.Errorf("parsing rules: expected a list of rules (line %d)", root.Line)
	}

	return toRules(entries)
}

func decodeJSONRules(data []byte) ([]ruleEntry, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var wrapped struct {
			Rules []ruleEntry `json:"rules"`
		}
		if err := json.Unmarshal(trimmed, &wrapped); err != nil {
			return nil, fmt.Errorf("parsing rules: %w", err)
		}
		return wrapped.Rules, nil
	}

	var entries []ruleEntry
	if err := json.Unmarshal(trimmed, &entries); err != nil {
		return nil, fmt.Errorf("parsing rules: %w", err)
	}
	return entries, nil
}

func toRules(entries []ruleEntry) ([]domain.Rule, error) {
	if len(entries) == 0 {
		return nil, errors.New("at least one rule is required")
	}

	var errs []error
	rules := make([]domain.Rule, 0, len(entries))

	for i := range entries {
		e := &entries[i]

		term := firstString(e.Term, e.Include)
		price := firstFloat(e.MaxPrice, e.Price)

		if strings.TrimSpace(term) == "" {
			errs = append(errs, fmt.Errorf("rules[%d].term is required", i))
		}
		switch {
		case price == nil:
			errs = append(errs, fmt.Errorf("rules[%d].max_price is required", i))
		case *price < 0 || math.IsNaN(*price) || math.IsInf(*price, 0):
			errs = append(errs, fmt.Errorf("rules[%d].max_price must be a non-negative number", i))
		}

		if term != "" && price != nil {
			rules = append(rules, domain.Rule{Term: strings.TrimSpace(term), MaxPrice: *price})
		}
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return rules, nil
}

func firstString(vals ...*string) string {
	for _, v := range vals {
		if v != nil {
			return *v
		}
	}
	return ""
}

func firstFloat(vals ...*float64) *float64 {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}
