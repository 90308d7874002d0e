// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for bulk track generation:
//  1. [CountView] : Pick how many tracks to generate
//  2. [ConfirmView] : Review the request before spending synthesis credits
//  3. [GenerateView] : Monitor real-time pipeline progress
//  4. [ResultView] : Browse the generated tracks and any failure detail
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// Progress updates flow through a channel from the GenerationEngine, providing non-blocking status reporting during runs.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
