// Package logging provides leveled logging configured from the environment.
//
// The level is read once from DEBUG or LOG_LEVEL. Debug output is suppressed
// unless explicitly enabled, which keeps per-image decode logging out of
// normal runs.
package logging
