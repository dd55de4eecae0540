package domain

import "errors"

// ErrUnknownNodeType is returned when a node carries a type outside the closed set.
var ErrUnknownNodeType = errors.New("unknown node type")

// ErrTokenCollision is returned when two distinct nodes resolve to the same
// callback token and the collision policy forbids recovering from it.
var ErrTokenCollision = errors.New("callback token collision")

// ErrDanglingTarget is returned when a button targets a node absent from the
// graph and the dangling policy is strict.
var ErrDanglingTarget = errors.New("dangling button target")

// ErrUserNotFound is returned when a variable store has no record for a user.
var ErrUserNotFound = errors.New("user not found")
