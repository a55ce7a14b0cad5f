// Package pacman talks to the system package manager. It wraps an AUR helper for
// mutating operations and answers "what is installed" either by querying pacman or
// by reading the local package database directly.
package pacman
