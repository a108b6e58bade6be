// Package notifications publishes user-facing events into Redis channels.
// Delivery to clients is handled outside this service.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Event types published on user channels.
const (
	EventCommentApproved = "comment_approved"
	EventCommentRejected = "comment_rejected"
	EventCommentReply    = "comment_reply"
	EventPostComment     = "post_comment"
	EventAccountBanned   = "account_banned"
)

// Event is the JSON payload published for a user.
type Event struct {
	Type      string    `json:"type"`
	PostID    uint      `json:"post_id,omitempty"`
	PostSlug  string    `json:"post_slug,omitempty"`
	CommentID uint      `json:"comment_id,omitempty"`
	ActorID   uint      `json:"actor_id,omitempty"`
	Message   string    `json:"message,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Notifier provides helpers to publish notifications into Redis channels
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// PublishUser sends a notification payload to a user's channel.
func (n *Notifier) PublishUser(
	ctx context.Context, userID uint, payload string,
) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	return n.rdb.Publish(ctx, UserChannel(userID), payload).Err()
}

// Notify publishes ev to userID's channel, stamping its creation time.
func (n *Notifier) Notify(ctx context.Context, userID uint, ev Event) error {
	if n == nil || n.rdb == nil || userID == 0 {
		return nil
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return n.PublishUser(ctx, userID, string(payload))
}

// UserChannel derives the Redis channel name for a user.
func UserChannel(userID uint) string {
	return "notifications:user:" + strconv.FormatUint(uint64(userID), 10)
}
