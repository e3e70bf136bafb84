package userdb

import "errors"

// ErrNotFound indicates the requested user does not exist. Service layers
// decide how to map it into domain errors.
var ErrNotFound = errors.New("user record not found")
