// Package logging configures structured logging for docsync.
//
// Without a log file, human-readable text records go to stderr. With one,
// JSON records are written to a size-rotated file (and to stderr unless
// disabled).
package logging
