package utilities

import (
	"github.com/bwmarrin/snowflake"
	"github.com/segmentio/ksuid"
)

// NewKSUID generates a globally unique, URL-safe KSUID string. Used for
// opaque one-time tokens (password reset).
func NewKSUID() string {
	return ksuid.New().String()
}

// NewSnowflakeID generates a snowflake ID string for the given node. Falls
// back to a KSUID if the node cannot be initialized, so callers always get a
// unique ID back.
func NewSnowflakeID(nodeID int64) string {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return NewKSUID()
	}
	return node.Generate().String()
}
