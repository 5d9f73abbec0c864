// Package kcepconfig reads the handful of settings cmd/kcep-run needs
// before it can run a plan: the API token an established session would
// authenticate with, and the response/time-travel behavior flags of
// spec.md §6's CLI surface.
//
// (expansion) Grounded on the teacher's own env/flag handling in
// cmd/sentra/main.go (SENTRA_DEV_PATH, SENTRA_INSTALL_DIR read via
// os.Getenv at startup) generalized from installer paths to a runtime
// token and duration, since SPEC_FULL.md §6 calls for
// "$KITTYCAD_API_TOKEN-equivalent config" but leaves transport
// establishment itself a named external collaborator (spec.md §1).
package kcepconfig

import (
	"os"
	"time"
)

// tokenEnvVar is the token environment variable name, standing in for
// the real modeling API's own (auth/transport establishment is out of
// scope per spec.md §1's Non-goals).
const tokenEnvVar = "KCEP_API_TOKEN"

// defaultTimeout is Config.Timeout's value when the --timeout flag is not
// given; it matches session.Start's own 10s fallback (§4.7).
const defaultTimeout = 10 * time.Second

// Config is the resolved set of run-time settings cmd/kcep-run needs.
type Config struct {
	// Token is the bearer credential a real session would present while
	// establishing its connection. Empty means no token was configured;
	// cmd/kcep-run still runs (dry, with no attached session) rather than
	// refusing outright, since a plan with no ApiRequest instructions
	// needs no session at all.
	Token string

	// Timeout is the default per-response deadline handed to
	// session.Start.
	Timeout time.Duration

	// TimeTravel selects stepper.RunTimeTravel over stepper.Run.
	TimeTravel bool
}

// FromEnv reads Token from tokenEnvVar, sets Timeout to defaultTimeout,
// and leaves TimeTravel false, for the caller (typically the CLI flag
// parser) to override.
func FromEnv() Config {
	return Config{Token: os.Getenv(tokenEnvVar), Timeout: defaultTimeout}
}
