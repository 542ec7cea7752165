// Package filename turns a suggested (title, author) pair into a filesystem-safe
// PDF filename.
package filename
