package events

import "context"

// StreamWorkflow carries promotion and moderation events.
const StreamWorkflow = "events:workflow"

// Event types
const (
	EventPromotionStatusChanged = "promotion_status_changed"
	EventPostSubmitted          = "sponsored_post_submitted"
	EventPostReviewed           = "sponsored_post_reviewed"
	EventPostLinkUnreachable    = "sponsored_post_link_unreachable"
)

type Event struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload"`
}

type Publisher interface {
	Publish(ctx context.Context, stream string, event Event) error
}

type Subscriber interface {
	Subscribe(ctx context.Context, stream string, handler func(Event)) error
}

// Recipients returns the actor ids an event concerns.
func (e Event) Recipients() []string {
	var ids []string
	for _, key := range []string{"vendor_id", "vlogger_id"} {
		if v, ok := e.Payload[key].(string); ok && v != "" {
			ids = append(ids, v)
		}
	}
	return ids
}
