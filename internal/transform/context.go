package transform

import (
	"github.com/vyrodovalexey/paramgw/internal/payload"
)

// DataContext is everything a single request resolution may read: the actual
// request payload and the ambient metadata supplied by the transport layer.
// A DataContext belongs to one call and must not be shared.
type DataContext struct {
	// Payload is the actual request body.
	Payload *payload.Map

	// ClientID is the caller identifier (the X-ClientId header).
	ClientID string

	// Service, Operation and Version identify the called API.
	Service   string
	Operation string
	Version   string
}

// NewDataContext creates a DataContext for the given payload.
func NewDataContext(p *payload.Map) *DataContext {
	return &DataContext{Payload: p}
}

// ambient converts an ambient string to a stored value; empty means absent.
func ambient(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
