// Package api defines the request and response messages of the settleup
// RPC services. Messages are plain structs encoded as JSON on the wire; see
// package apiconnect for the Connect handlers and clients.
//
// Amounts are whole currency units. Request amounts are strings so clients
// can send values exactly as entered; responses carry integers.
package api
