// Package prompt reads operator input for interactive commands.
//
// TerminalPrompter switches a terminal into raw mode to read a single key
// press, echoing it back because raw mode suppresses the terminal echo. When
// the input is not a terminal it falls back to line reads and uses the first
// character of each line. The interrupt byte (Ctrl+C) read in raw mode yields
// ErrInterrupted.
package prompt
