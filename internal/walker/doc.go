// Package walker discovers documentation files under a root directory.
//
// A file named after a directory, placed next to it, is the parent of every
// file below that directory:
//
//	docs/
//	  2024.md          <- parent of everything under 2024/
//	  2024/
//	    wk-01.md
//	    wk-02.md
//
// Walk returns the discovered files sorted by path so that repeated runs
// produce the same order. Sibling directories are read concurrently but the
// result does not depend on scheduling.
//
// Symbolic links are followed. A link that points back to one of its own
// ancestor directories is skipped.
package walker
