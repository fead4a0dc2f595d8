// Package testingx contains code useful for testing.
package testingx
