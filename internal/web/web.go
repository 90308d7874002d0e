// Package web implements an HTMX-based web dashboard mirroring the TUI and admin API functionality.
//
// # HTMX Dashboard Implementation Plan
//
// # Architecture
//
// The dashboard replicates the generation workflow using server-side rendering
// with HTMX for dynamic updates. Each view corresponds to a template and handler:
//
//  1. Overview: Usage counters and title pool availability
//  2. Batch Request: Form posting a generation request
//  3. Progress Monitor: SSE (Server-Sent Events) streaming pipeline phases
//  4. Batch Results: Generated tracks with per-track deploy buttons
//  5. Schedules: Table of recurring runs with add/remove controls
//
// Core Components
//
//   - HTTP Server: reuses the server package's Router and Logging middleware
//   - Engine Integration: Uses the same tasks.GenerationEngine and tasks.Deployer as the CLI
//   - SSE Handler: Streams tasks.ProgressUpdate values during runs
//
// Routes
//
//	GET  /                     → Overview (usage + pool status)
//	GET  /batches              → Batch history from the track repository
//	POST /generate             → Start a run, return SSE endpoint
//	GET  /generate/{id}/stream → SSE progress stream
//	GET  /generate/{id}/result → Final batch view
//	POST /deploy               → Promote a batch to the catalog
//	GET  /schedules            → Schedule table
//	POST /schedules            → Create schedule (HTMX partial swap)
//
// Templates
//
//   - base.html: Layout with navigation and usage summary
//   - batches.html: Table with hx-get on rows
//   - progress.html: SSE consumer mapping tasks.Phase to progress bar segments
//   - results.html: Track listing with deploy state badges
//
// # State Management
//
// The dashboard holds no state of its own:
//   - Track and schedule rows come from the repositories package
//   - Run progress flows through in-memory channels held per SSE connection
//   - Usage counters come from the cache store's ledger
//
// # Progress Streaming
//
// Run progress uses Server-Sent Events:
//  1. POST /generate launches a goroutine running GenerationEngine.Run
//  2. Client opens SSE connection to /generate/{id}/stream
//  3. Progress channel updates stream as SSE events, one per phase transition
//  4. On completion, send "done" event with the batch result URL
//
// Dependencies
//
//   - html/template: Server-side rendering
//   - net/http: HTTP server and SSE
//   - internal/server: Router, middleware, and the JSON endpoints HTMX falls back to
//
// Implementation Tasks
//
//  1. Template structure with HTMX integration
//  2. Overview handler joining usage ledger and pool availability
//  3. Generate endpoint bridging form posts to GenerateRequest
//  4. SSE handler streaming ProgressUpdate values
//  5. Deploy endpoint delegating to tasks.Deployer
//  6. Schedule handlers delegating to the schedule repository
//  7. Error handling and validation
//
// # Testing Strategy
//
// Use httptest:
//   - Mocks from internal/testing for the engine's services
//   - Validate HTMX headers and response structure
//   - Test SSE stream formatting against scripted progress updates
package web
