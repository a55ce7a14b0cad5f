// Package packages models package references as they appear in group files,
// package database queries, and command-line arguments.
//
// A Package is identified by its name alone; the optional repository qualifier
// is preserved for display but never participates in equality, hashing, or
// ordering. Set provides the name-keyed collection used for reconciliation.
package packages
