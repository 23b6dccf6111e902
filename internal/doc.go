// Package internal contains the core implementation packages for docmerge.
//
// # Package Organization
//
// The internal packages are organized by functional domain:
//
//   - fragment: Per-project page, section and example documents
//   - merge: Ordered multiset merge of fragments into an element stream
//   - linker: Manifest and project config loading, parallel page merges
//   - renderer: HTML pages and the site index built from element streams
//   - build: Site writer, HTML minifier, output cache and build pipeline
//   - watcher: File system monitoring with debouncing
//   - websocket: Live reload broadcasting to connected browsers
//   - server: Preview HTTP server over the written site
//   - config: Configuration loading and validation
//   - errors: Structured errors carrying page, project and fragment context
//   - logging: Structured logging on log/slog
//
// # Data Flow
//
// A build runs in one direction:
//
//	make.json -> linker -> merge -> []MergedPage -> renderer -> build -> output/
//
// In watch and serve mode the watcher triggers the build pipeline, and the
// server forwards every build result to connected browsers.
//
// # Testing Strategy
//
// Unit tests live next to each package and use testify. Property tests for
// the merge and the debouncer run under the property build tag, and
// end-to-end tests over the example site under the integration tag.
package internal
