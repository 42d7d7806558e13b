// Package randid provides random ID generation utilities.
package randid

import "math/rand/v2"

// chars excludes characters that are easy to misread on an asset label
// (0/O, 1/I/L).
const chars = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// Generate creates a random upper-case ID of the specified length, safe for
// use in computer names.
func Generate(length int) string {
	b := make([]byte, length)
	for i := range b {
		b[i] = chars[rand.IntN(len(chars))]
	}
	return string(b)
}
