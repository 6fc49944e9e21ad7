// Package http provides HTTP handlers and middleware for the restaurant API.
//
// The router exposes the following endpoints:
//   - GET /health: {"status":"ok"}, or 503 {"status":"degraded"} when a store
//     ping fails.
//   - GET /availability?when&party_size&duration_min&location_id: whether a
//     party can be seated and on which table.
//   - POST /reservations, GET /reservations?date&location_id&status,
//     GET /reservations/{id}: the booking ledger, exchanging the
//     `reservationDTO` payload defined in reservation_handler.go. Creation is
//     rate limited per client IP.
//   - POST /tenants, GET /tenants/{id}, POST /tenants/{id}/locations,
//     GET /locations/{id}/tables: onboarding.
//   - POST /customers, GET /customers/{id}, PATCH /customers/{id}/consent.
//   - GET /governance/pii_inventory, GET|POST /governance/retention/policies,
//     POST /governance/retention/apply.
//   - GET /analytics/covers/{daily,hourly}, GET /analytics/core/metrics,
//     GET /analytics/core/freshness.
//   - GET /inventory/ingredients, GET /inventory/onhand, POST /inventory/adjust,
//     GET /inventory/usage.
//   - POST /reviews, GET /reviews/summary.
//   - GET /menu/items, GET /recs/popular, GET /recs/cooccurrence.
//   - POST /seed: demo data generation.
//
// Retention mutations and seeding require the operator key as a Bearer token
// when one is configured. Errors are JSON documents of the form
// {"error_code","message","errors"} where errors maps field names to messages
// and accompanies 422 responses.
//
// Request/response DTOs live alongside their respective handlers so tests and
// documentation share the same ground truth.
package http
