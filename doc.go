// Package fenceline renders the fenced code blocks of a parsed HTML
// document tree into styled markup.
//
// Documents are [golang.org/x/net/html] node trees. A [Transformer]
// walks a tree once, finds every <pre><code> block, highlights it with
// a tokenizer engine, and splices the result back in place. Shared
// style and script payloads are emitted once per document, attached
// ahead of the first rendered block.
//
// The expensive parts are cached process-wide: engine instances are
// constructed at most once per configuration, and each theme and
// language loads at most once per instance, no matter how many
// documents are rendered concurrently. See [engine].
package fenceline
