// Package common contains shared constants and sentinel errors used across
// VidKeeper components.
package common

// SessionCookieName is the cookie that carries the signed session token.
const SessionCookieName = "vidkeeper_session"

// Field length limits shared by forms, services and the SQL schema.
const (
	MinUsernameLength     = 3
	MinEmailLength        = 6
	MaxEmailLength        = 35
	MinVideoContentLength = 10
	MaxVideoContentLength = 50
)
