// Package transport delivers transaction chunks to the Ember server and
// feeds server-pushed entity state back into the local cache.
package transport

import (
	"encoding/json"

	"github.com/emberbase/ember-go/types"
)

// Frame ops. The client sends transact frames; the server answers with
// transact-ok or error keyed by the client event id, and pushes refresh
// frames for entities the client is subscribed to.
const (
	OpTransact   = "transact"
	OpTransactOK = "transact-ok"
	OpRefresh    = "refresh"
	OpError      = "error"
)

// Frame is the wire envelope for every message in either direction
type Frame struct {
	Op            string                   `json:"op"`
	ClientEventID string                   `json:"client_event_id,omitempty"`
	AppID         string                   `json:"app_id,omitempty"`
	Chunks        []types.TransactionChunk `json:"chunks,omitempty"`
	Entities      []*types.Entity          `json:"entities,omitempty"`
	Message       string                   `json:"message,omitempty"`
}

// EncodeFrame serializes a frame for the wire
func EncodeFrame(f *Frame) ([]byte, error) {
	return json.Marshal(f)
}

// DecodeFrame parses a wire frame
func DecodeFrame(data []byte) (*Frame, error) {
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return &f, nil
}
