// Package planapi exposes the diff engine over HTTP.
//
// It lets administrators validate a principals file and preview the change
// plan a sync would produce, without touching any platform. The endpoints
// are stateless; every request carries its own desired (and optionally
// current) principal set.
//
// # HTTP Endpoints
//
//   - GET  /healthz          : liveness probe, no auth.
//   - POST /api/validate     : referential-integrity check of a principals array.
//   - POST /api/plan         : change plan for desired vs current under given options.
//
// # Components
//
//   - Service: parses principal payloads and runs validation and diffing.
//   - Handler: exposes the HTTP endpoints on a Fiber router.
package planapi
