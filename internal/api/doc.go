// Package api is the HTTP client for the secrets backend.
//
// It implements the two remote collaborators of the issuance workflow:
//
//   - key distribution: GET /api/v2/workspace/{workspaceId}/encrypted-key
//   - credential persistence: POST /api/v3/service-token,
//     PATCH /api/v3/service-token/{id} and GET /api/v3/service-token/{id}
//
// Non-2xx responses are returned as *Error. 401 and 403 additionally wrap
// ErrUnauthorized; 404 wraps the not-found sentinel of the resource asked for.
// Request timeouts come from the client configuration.
package api
