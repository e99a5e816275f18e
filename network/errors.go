package network

import (
	"errors"
	"fmt"
)

var (
	// ErrConnectionFailed indicates the client could not reach the runtime node.
	ErrConnectionFailed = errors.New("network: connection failed")

	// ErrAuthFailed indicates the RPC credentials were rejected.
	ErrAuthFailed = errors.New("network: authentication failed")

	// ErrInvalidResponse indicates the node returned a malformed or unexpected response.
	ErrInvalidResponse = errors.New("network: invalid response")

	// ErrRPC indicates the node processed the request and returned an RPC error.
	ErrRPC = errors.New("network: rpc error")

	// ErrDNSLookupFailed indicates a DNS lookup failed.
	ErrDNSLookupFailed = errors.New("network: DNS lookup failed")

	// ErrDNSSECValidationFailed indicates the resolver did not authenticate the answer.
	ErrDNSSECValidationFailed = errors.New("network: DNSSEC validation failed")

	// ErrNoEndpoints indicates discovery found no runtime endpoints.
	ErrNoEndpoints = errors.New("network: no endpoints found")
)

// RPCError is an error object returned by the node. It matches ErrRPC.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("network: rpc error %d: %s", e.Code, e.Message)
}

// Is reports whether target is ErrRPC.
func (e *RPCError) Is(target error) bool { return target == ErrRPC }
