// Package cli constructs the pacdef command-line interface. It wires the Cobra
// command hierarchy to the Viper configuration loader and the zap logger, and
// maps command failures to process exit statuses.
package cli
