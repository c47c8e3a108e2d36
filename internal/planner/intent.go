// Package planner turns a chat message into an execution plan and drives it
// through the tool registry: detect intent, extract slots, ask for
// confirmation on mutating plans, execute, and summarize the results.
package planner

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/helvia-io/maestro/patterns"
)

// Intent is the coarse classification of what the user asked for.
type Intent string

const (
	IntentEmailSummary Intent = "email_summary"
	IntentCreateEvent  Intent = "create_event"
	IntentCreateTask   Intent = "create_task"
	IntentCreateNote   Intent = "create_note"
	IntentGeneralQA    Intent = "general_qa"
)

// IntentFile is the top-level YAML structure for an intent recognizer file.
type IntentFile struct {
	Intents []IntentConfig `yaml:"intents"`
}

// IntentConfig maps one intent to its recognizer patterns.
type IntentConfig struct {
	Intent   string          `yaml:"intent"`
	Patterns []PatternConfig `yaml:"patterns"`
}

// PatternConfig is a single named regex within an intent.
type PatternConfig struct {
	Name  string `yaml:"name"`
	Regex string `yaml:"regex"`
}

// ParseIntentFile parses intent recognizer YAML bytes.
func ParseIntentFile(data []byte) (*IntentFile, error) {
	var f IntentFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing intent YAML: %w", err)
	}
	return &f, nil
}

// LoadIntentFile reads and parses an intent YAML file from disk. Returns
// nil (not an error) if the file does not exist, so a missing override is
// a no-op.
func LoadIntentFile(path string) (*IntentFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading intent file %s: %w", path, err)
	}
	return ParseIntentFile(data)
}

// IntentClassifier decides which intent a message expresses. The default
// implementation is pattern-based; an NLP-backed classifier can replace it
// without touching the orchestrator.
type IntentClassifier interface {
	Detect(message string) Intent
}

// Classifier matches messages against compiled intent patterns in file
// order. The first intent with a matching pattern wins.
type Classifier struct {
	rules []intentRule
}

type intentRule struct {
	intent   Intent
	patterns []*regexp.Regexp
}

// NewClassifier compiles an intent file. Patterns are case-insensitive.
func NewClassifier(f *IntentFile) (*Classifier, error) {
	c := &Classifier{rules: make([]intentRule, 0, len(f.Intents))}
	for _, ic := range f.Intents {
		rule := intentRule{intent: Intent(ic.Intent)}
		for _, pc := range ic.Patterns {
			re, err := regexp.Compile("(?i)" + pc.Regex)
			if err != nil {
				return nil, fmt.Errorf("compiling pattern %s/%s: %w", ic.Intent, pc.Name, err)
			}
			rule.patterns = append(rule.patterns, re)
		}
		c.rules = append(c.rules, rule)
	}
	return c, nil
}

// DefaultClassifier builds a classifier from the embedded intent patterns,
// optionally merged with an override file. Intents in the override replace
// same-named embedded intents; new intents are appended.
func DefaultClassifier(overridePath string) (*Classifier, error) {
	base, err := ParseIntentFile(patterns.IntentsYAML())
	if err != nil {
		return nil, fmt.Errorf("parsing embedded intent patterns: %w", err)
	}
	if overridePath != "" {
		override, err := LoadIntentFile(overridePath)
		if err != nil {
			return nil, err
		}
		if override != nil {
			base = mergeIntents(base, override)
		}
	}
	return NewClassifier(base)
}

func mergeIntents(base, override *IntentFile) *IntentFile {
	index := make(map[string]int, len(base.Intents))
	merged := &IntentFile{Intents: append([]IntentConfig(nil), base.Intents...)}
	for i, ic := range merged.Intents {
		index[ic.Intent] = i
	}
	for _, ic := range override.Intents {
		if i, exists := index[ic.Intent]; exists {
			merged.Intents[i] = ic
		} else {
			index[ic.Intent] = len(merged.Intents)
			merged.Intents = append(merged.Intents, ic)
		}
	}
	return merged
}

// Detect returns the first intent whose patterns match the message, or
// general_qa when nothing matches.
func (c *Classifier) Detect(message string) Intent {
	for _, rule := range c.rules {
		for _, re := range rule.patterns {
			if re.MatchString(message) {
				return rule.intent
			}
		}
	}
	return IntentGeneralQA
}
