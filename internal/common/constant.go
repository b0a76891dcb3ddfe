package common

const (
	// AuthorizationHeader carries the bearer token on authenticated requests.
	AuthorizationHeader = "Authorization"
	// BearerPrefix precedes the token inside AuthorizationHeader.
	BearerPrefix = "Bearer "
	// APIPrefix is the mount point of the REST API.
	APIPrefix = "/api/v1"
)
