// Package review walks the operator through every unmanaged package, records what should
// happen to each one, and applies the decisions in a fixed order once they are confirmed.
package review
