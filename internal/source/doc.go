// Package source models the documents fed to the synchronization engine.
//
// Every source kind implements EmbeddingSource. The engine only ever calls
// Load and the route accessors, so adding a new format means adding a new
// implementation here and nothing else.
//
// Route paths are derived from file paths by stripping the docs root and the
// extension:
//
//	src/app/docs/newsletters/2024/wk-01.md  ->  /2024/wk-01
package source
