// Package execshell runs external programs such as pacman, the AUR helper, and
// the configured editor.
//
// ShellExecutor wraps a CommandRunner with structured logging and lifecycle
// notifications, and turns non-zero exit codes into CommandFailedError values.
// OSCommandRunner is the default runner; interactive commands inherit the
// terminal so that the child process can prompt the operator directly.
package execshell
