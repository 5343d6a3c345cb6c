// Package bus implements the inter-context publish/subscribe channel: a
// single logical subject carrying three message variants, best-effort and
// non-durable. It generalizes a Dispatch/Handler pub-sub shape, but drops
// any durable-stream persistence half — see DESIGN.md.
package bus

import "encoding/json"

// MessageType discriminates the wire envelope.
type MessageType string

const (
	TypeLeaderAnnounce MessageType = "leader_announce"
	TypeQueryRequest   MessageType = "query_request"
	TypeQueryResponse  MessageType = "query_response"
)

// Envelope is the outer shape every message on the bus shares: a type
// discriminator plus an opaque payload, so unknown types can be logged and
// discarded rather than failing the whole decode.
type Envelope struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// LeaderAnnounce is published once by a context immediately after it
// acquires leadership. Followers use it only for
// observability; no protocol behavior depends on receiving it.
type LeaderAnnounce struct {
	InstanceID string `json:"instance_id"`
}

// QueryRequest is published by a follower asking the leader to execute a
// statement on its behalf, or to wipe_and_recreate the database when Wipe
// is set — it reuses the same request/response/correlation-id envelope
// rather than adding a fourth bus message variant for what is, from the
// router's perspective, just another leader-side operation awaited by
// query_id.
type QueryRequest struct {
	QueryID    string `json:"query_id"`
	InstanceID string `json:"instance_id"`
	SQL        string `json:"sql,omitempty"`
	Params     []any  `json:"params,omitempty"`
	Wipe       bool   `json:"wipe,omitempty"`
}

// QueryResponse is published by the leader in reply to a QueryRequest,
// correlated back to the waiting follower by QueryID.
type QueryResponse struct {
	QueryID string          `json:"query_id"`
	Rows    json.RawMessage `json:"rows,omitempty"`
	Message string          `json:"message,omitempty"`
	Error   json.RawMessage `json:"error,omitempty"`
}
