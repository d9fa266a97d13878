// Package ui implements a terminal band browser using bubbletea's Elm architecture.
//
// The TUI has three views:
//  1. [ListView] : Type to search, tab to cycle regions, enter to open a band
//  2. [DetailView] : Band details, normalized links and the website preview
//  3. [WarmView] : Progress of a preview cache warm run, then its summary
//
// The [Model] loads every band once and narrows the list in memory with [search.Filter] on each keystroke,
// so results update instantly without going back to the database.
// Warm progress flows through a channel from the tasks engine, the same non-blocking updates the CLI prints.
//
// Keyboard navigation uses arrow keys plus ctrl bindings, leaving plain letters to the search input.
// Contextual help is displayed via charmbracelet/bubbles/help.
package ui
