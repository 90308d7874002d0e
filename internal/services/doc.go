// Package services contains HTTP clients for the external generation collaborators.
//
// Five collaborators are consumed through narrow interfaces:
//   - [TextService] : title and keyword generation ([TextClient])
//   - [AudioService] : asynchronous audio synthesis ([AudioClient])
//   - [ImageService] : cover image synthesis ([ImageClient])
//   - [AssetService] : remote asset download into local media storage ([AssetDownloader])
//   - [CatalogService] : production catalog promotion ([CatalogClient])
//
// Clients take context on every call, wrap errors with detail, and rate-limit
// billed endpoints with golang.org/x/time/rate. Transport and payload shapes
// stay inside this package; the rest of the pipeline sees only the interfaces.
package services
