package fanout

import (
	"context"
	"fmt"

	"github.com/otabek42/blogium/backend/internal/models"
	"github.com/otabek42/blogium/backend/internal/repositories"
	"github.com/otabek42/blogium/backend/internal/ws"
)

// Publisher is the live-delivery side of the broker as seen by the fan-out
// path. *ws.Broker satisfies it.
type Publisher interface {
	Publish(groupKey string, message any)
}

// NotificationPayload is the wire shape pushed to connected clients
type NotificationPayload struct {
	Verb       string `json:"verb"`
	PostTitle  string `json:"post_title,omitempty"`
	PostSlug   string `json:"post_slug,omitempty"`
	ActorEmail string `json:"actor_email"`
	ActorID    uint   `json:"actor_id"`
}

// buildPayload constructs the push payload for an event. Pure; called once
// per event, never per recipient.
func buildPayload(verb string, actor *models.User, post *models.Post) NotificationPayload {
	p := NotificationPayload{
		Verb:       verb,
		ActorEmail: actor.Email,
		ActorID:    actor.ID,
	}
	if post != nil {
		p.PostTitle = post.Title
		p.PostSlug = post.Slug
	}
	return p
}

// Orchestrator turns domain events into durable notification rows plus
// best-effort live pushes. The durable write is the system of record; a
// client that misses the push still finds the row via the notification
// listing.
type Orchestrator struct {
	followRepository       repositories.FollowRepository
	notificationRepository repositories.NotificationRepository
	userRepository         repositories.UserRepository
	publisher              Publisher
}

// NewOrchestrator creates a new fan-out Orchestrator
func NewOrchestrator(
	followRepo repositories.FollowRepository,
	notifRepo repositories.NotificationRepository,
	userRepo repositories.UserRepository,
	publisher Publisher,
) *Orchestrator {
	return &Orchestrator{
		followRepository:       followRepo,
		notificationRepository: notifRepo,
		userRepository:         userRepo,
		publisher:              publisher,
	}
}

// NotifyFollowers fans a freshly published post out to every follower of the
// actor: one durable notification row per follower written in a single bulk
// insert, then one live publish per follower. The returned error covers
// audience resolution and the durable write only; publishes are
// fire-and-forget and cannot fail the call. The caller's post is already
// committed and must never be rolled back because of a fan-out failure.
func (o *Orchestrator) NotifyFollowers(ctx context.Context, actorID uint, post *models.Post) error {
	followerIDs, err := o.followRepository.GetFollowerIDs(actorID)
	if err != nil {
		return fmt.Errorf("failed to resolve audience for user %d: %w", actorID, err)
	}

	// The actor never notifies itself, even if a self-follow edge slipped in
	audience := make([]uint, 0, len(followerIDs))
	for _, id := range followerIDs {
		if id == actorID {
			continue
		}
		audience = append(audience, id)
	}
	if len(audience) == 0 {
		return nil
	}

	actor, err := o.userRepository.GetUserByID(actorID)
	if err != nil {
		return fmt.Errorf("failed to load actor %d: %w", actorID, err)
	}

	notifications := make([]models.Notification, len(audience))
	for i, recipientID := range audience {
		notifications[i] = models.Notification{
			RecipientID: recipientID,
			ActorID:     actorID,
			PostID:      post.ID.Hex(),
			Verb:        models.VerbNewPost,
		}
	}
	if err := o.notificationRepository.CreateNotifications(notifications); err != nil {
		return fmt.Errorf("failed to store notifications: %w", err)
	}

	// Broker enqueue is non-blocking, so dispatching completes without
	// waiting on any client
	payload := buildPayload(models.VerbNewPost, actor, post)
	for _, recipientID := range audience {
		o.publisher.Publish(ws.GroupKey(recipientID), payload)
	}
	return nil
}

// notifyOne stores and pushes a single-recipient notification. Self-directed
// events are suppressed.
func (o *Orchestrator) notifyOne(recipientID uint, actor *models.User, post *models.Post, verb string) error {
	if recipientID == actor.ID {
		return nil
	}

	postID := ""
	if post != nil {
		postID = post.ID.Hex()
	}
	notification := &models.Notification{
		RecipientID: recipientID,
		ActorID:     actor.ID,
		PostID:      postID,
		Verb:        verb,
	}
	if err := o.notificationRepository.CreateNotification(notification); err != nil {
		return fmt.Errorf("failed to store notification: %w", err)
	}

	o.publisher.Publish(ws.GroupKey(recipientID), buildPayload(verb, actor, post))
	return nil
}

// NotifyFollow tells a user they gained a follower
func (o *Orchestrator) NotifyFollow(actor *models.User, targetID uint) error {
	return o.notifyOne(targetID, actor, nil, models.VerbNewFollower)
}

// NotifyPostLiked tells a post's author their post was liked
func (o *Orchestrator) NotifyPostLiked(actor *models.User, post *models.Post) error {
	return o.notifyOne(post.AuthorID, actor, post, models.VerbPostLiked)
}

// NotifyNewComment tells a post's author their post was commented on
func (o *Orchestrator) NotifyNewComment(actor *models.User, post *models.Post) error {
	return o.notifyOne(post.AuthorID, actor, post, models.VerbNewComment)
}
