/*
Package session serializes access to the variables of each bot user.

A Telegram bot receives updates for the same user concurrently (several taps
in quick succession, or several replicas behind one webhook). The Manager
runs each read-modify-write of a user's variables under a per-user lock,
optionally backed by a ports.DistributedLocker so replicas take turns too.
*/
package session
