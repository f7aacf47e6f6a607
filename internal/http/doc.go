// Package http exposes the WorkTime REST API on a chi router.
//
// The router exposes the following endpoints:
//   - GET /health, GET /metrics, GET /metrics/summary: probes and Prometheus
//     metrics. Always public.
//   - POST /login {"username","password"}: 200 for an existing account, 201
//     when the username was unknown and an employee got provisioned. POST
//     /register {"username","password","name"}: 201. Both respond with
//     {"user","token","expiresAt"}; the token is an HS256 bearer JWT.
//   - GET /company, GET /company/location, POST /company/check-location
//     {"latitude","longitude"} -> {"isWithin","distance","radius"}.
//   - GET /users, GET /users/filter?date&positionIds&includeUnavailable,
//     GET|PATCH|DELETE /users/{id}, GET /users/{id}/hours?period&date.
//   - GET /dashboard/{userId}.
//   - GET|POST /shifts, GET|PATCH|DELETE /shifts/{id}, POST
//     /shifts/{id}/assign {"userId"}. Listing accepts from, to, userId, role,
//     unassigned, groupBy=day and summary=true.
//   - GET /timesheets, POST /timesheets/clock-in, POST /timesheets/clock-out,
//     GET /timesheets/active/{userId} -> {"active": timesheet|null}.
//   - GET|POST /availabilities, PATCH|DELETE /availabilities/{id}.
//   - GET|POST /swaps, POST /swaps/{id}/accept|reject|cancel with an optional
//     {"userId"} naming the acting user.
//
// Errors are {"error","code","fields"} with Polish messages. A bearer token is
// optional unless the router is configured to require one.
package http
