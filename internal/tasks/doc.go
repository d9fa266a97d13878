// Package tasks runs bulk operations over the band directory with real-time progress reporting.
//
// # Core Operations
//
// [Engine] exposes three operations:
//
//  1. [Engine.WarmPreviews] : Fill the link preview cache
//     - Lists every band with a website
//     - Fetches previews through a worker pool limited to a request rate
//     - Reports how many sites produced a preview
//
//  2. [Engine.Import] : Create bands from parsed CSV or JSON rows
//     - Normalizes and validates each row like the submit form
//     - Optionally skips rows whose slug already exists
//     - Records the outcome of every row
//
//  3. [Engine.Export] : Write the directory to disk
//     - One file per region, or a single file for everything
//     - JSON, CSV, Markdown, or plain text via the formatter package
//     - Writes a manifest summarizing the files
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
package tasks
