package domain

import "strings"

// Environment selects which backend project (staging or production) is read.
type Environment string

const (
	EnvironmentStaging    Environment = "staging"
	EnvironmentProduction Environment = "production"
)

// Environments lists every selectable environment in display order.
var Environments = []Environment{EnvironmentStaging, EnvironmentProduction}

// ParseEnvironment returns the environment named by s. Matching is exact
// after trimming surrounding whitespace.
func ParseEnvironment(s string) (Environment, bool) {
	env := Environment(strings.TrimSpace(s))
	return env, env.Valid()
}

// Valid reports whether e is staging or production.
func (e Environment) Valid() bool {
	return e == EnvironmentStaging || e == EnvironmentProduction
}

func (e Environment) String() string { return string(e) }
