// Package patterns provides embedded default intent recognizer definitions.
// The YAML files in this directory map regex patterns to conversation
// intents; internal/planner compiles them at startup.
package patterns

import _ "embed"

//go:embed intents.yaml
var intentsYAML []byte

// IntentsYAML returns the embedded default intent recognizer definitions.
func IntentsYAML() []byte { return intentsYAML }
