// Package client talks to the scanvault REST API.
//
// APIClient keeps the bearer token returned by Register or Login and sends
// it with every later request. Error bodies ({"error": "..."}) become
// *APIError values that match the sentinels ErrUnauthorized, ErrNotFound,
// ErrConflict and ErrInvalidInput with errors.Is; transport failures and
// 5xx responses match ErrUnavailable.
package client
