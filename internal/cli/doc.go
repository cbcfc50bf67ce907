// Package cli implements the nexusctl command-line interface.
//
// Each command is a cobra.Command registered on the root command in its own
// file's init. Commands share a cmdEnv built from the loaded config: the API
// client, the session guard over the on-disk token, and a factory for the
// sync engine.
//
// # Command Structure
//
//	nexusctl login              - Sign in and store the session
//	nexusctl logout             - Forget the session
//	nexusctl dashboard          - Live terminal dashboard
//	nexusctl snapshot [--json]  - Print the metrics once
//	nexusctl watch              - Headless live sync with logs and metrics
//	nexusctl config [init|set|path|show]
//	nexusctl version
//	nexusctl completion
//
// # Sessions
//
// Commands that need the backend go through session.Guard. When the session
// is missing or the backend rejects it, the dashboard asks for credentials
// again on a terminal; every other case exits with an UNAUTHORIZED error
// that tells the operator to run 'nexusctl login'.
//
// # Output
//
// Human output goes through the ui package. With --json, snapshot writes a
// JSONEnvelope and errors are written as envelopes on stdout too.
package cli
