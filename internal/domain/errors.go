package domain

import (
	"errors"
	"time"
)

// ErrNotFound is returned by stores when a referenced entity does not exist.
// The engine itself never fails on business state; this is strictly a
// boundary concern.
var ErrNotFound = errors.New("not found")

// StatusChange describes one classifier-driven node status transition. It is
// published to the status topic when Kafka is enabled.
type StatusChange struct {
	NodeID   int64      `json:"node_id"`
	NodeName string     `json:"node_name"`
	NodeType NodeType   `json:"node_type"`
	From     NodeStatus `json:"from"`
	To       NodeStatus `json:"to"`
	At       time.Time  `json:"at"`
}
