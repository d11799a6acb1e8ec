// Package realtime fans out "row changed" signals to the browsers of the
// owning user. Events carry no row data; clients refetch on receipt.
package realtime

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

const (
	TableRequests = "extraction_requests"
	TableVideos   = "videos"
	TableAgents   = "video_agents"
	TablePayments = "payments"
	TableProfiles = "profiles"
)

const (
	ActionInsert = "insert"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// ChannelPrefix prefixes the per-user Redis pub/sub channel.
const ChannelPrefix = "realtime:user:"

type Event struct {
	Table  string `json:"table"`
	Action string `json:"action"`
	RowID  uint   `json:"row_id"`
}

// Publisher delivers an event to every listener of userID.
type Publisher interface {
	Publish(ctx context.Context, userID uint, evt Event) error
}

// Channel is the Redis channel carrying userID's events.
func Channel(userID uint) string {
	return fmt.Sprintf("%s%d", ChannelPrefix, userID)
}

func userFromChannel(channel string) (uint, bool) {
	raw := strings.TrimPrefix(channel, ChannelPrefix)
	if raw == channel {
		return 0, false
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// ParseTables splits a comma separated table filter. Empty means all tables.
func ParseTables(raw string) []string {
	var out []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
