// Package ui renders operator-facing console output.
//
// Palette colours headings, package names, group names, and warnings with
// fatih/color. ConsoleCommandEventReporter prints a progress line whenever an
// external package-manager command starts or fails, while detailed telemetry
// continues to flow through zap.
package ui
