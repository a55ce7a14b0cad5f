// Package utils holds the configuration loader and logger factory shared by
// every pacdef command.
package utils
