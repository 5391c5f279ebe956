// Package common contains shared constants, sentinel errors and small random
// helpers used across service components.
package common

// AuthorizationHeaderName carries the admin bearer token on HTTP requests.
const AuthorizationHeaderName = "Authorization"

// RequestIDHeaderName is echoed back on each response and logged with it.
const RequestIDHeaderName = "X-Request-Id"

// AdminSubject is the JWT subject issued to the operator account.
const AdminSubject = "admin"
