// Package registry tracks live client connections.
//
// Every authenticated WebSocket client is represented by a Connection holding
// its actor identity, role and outbound Sink. The Registry indexes connections
// by identifier and by actor, enforces the one-connection-per-driver rule, and
// expires connections that stop sending heartbeats. Deregistration listeners
// let the rest of the system react when a client drops: the dispatch engine
// treats a dropped driver as offline, the tracking layer removes the client
// from its sessions.
package registry
