// Package reconcile compares the packages declared in groups with the packages installed
// on the system and drives the sync, clean and unmanaged commands.
package reconcile
