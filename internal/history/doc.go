// Package history keeps a SQLite log of play attempts.
package history
