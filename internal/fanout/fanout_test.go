package fanout

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/otabek42/blogium/backend/internal/models"
	"github.com/otabek42/blogium/backend/internal/repositories"
	"github.com/otabek42/blogium/backend/internal/ws"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// recordingPublisher captures publishes instead of touching a real broker
type recordingPublisher struct {
	published []publishedMessage
}

type publishedMessage struct {
	groupKey string
	message  any
}

func (p *recordingPublisher) Publish(groupKey string, message any) {
	p.published = append(p.published, publishedMessage{groupKey: groupKey, message: message})
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Follow{}, &models.Notification{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

type fixture struct {
	db           *gorm.DB
	orchestrator *Orchestrator
	publisher    *recordingPublisher
	notifRepo    repositories.NotificationRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)
	publisher := &recordingPublisher{}
	notifRepo := repositories.NewPostgresNotificationRepository(db)
	orchestrator := NewOrchestrator(
		repositories.NewPostgresFollowRepository(db),
		notifRepo,
		repositories.NewPostgresUserRepository(db),
		publisher,
	)
	return &fixture{db: db, orchestrator: orchestrator, publisher: publisher, notifRepo: notifRepo}
}

func (f *fixture) addUser(t *testing.T, id uint, email string) *models.User {
	t.Helper()
	user := &models.User{ID: id, Email: email, IsActive: true}
	if err := f.db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user %d: %v", id, err)
	}
	return user
}

func (f *fixture) addFollow(t *testing.T, followerID, followingID uint) {
	t.Helper()
	if err := f.db.Create(&models.Follow{FollowerID: followerID, FollowingID: followingID}).Error; err != nil {
		t.Fatalf("failed to create follow %d->%d: %v", followerID, followingID, err)
	}
}

func testPost(authorID uint, title, slug string) *models.Post {
	return &models.Post{
		ID:       primitive.NewObjectID(),
		AuthorID: authorID,
		Title:    title,
		Slug:     slug,
	}
}

func TestNotifyFollowersWritesOneRowPerFollower(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, 1, "alice@example.com")
	f.addUser(t, 2, "bob@example.com")
	f.addUser(t, 3, "carol@example.com")
	f.addFollow(t, 2, 1)
	f.addFollow(t, 3, 1)

	post := testPost(1, "Hello", "hello")
	if err := f.orchestrator.NotifyFollowers(context.Background(), 1, post); err != nil {
		t.Fatalf("NotifyFollowers failed: %v", err)
	}

	var rows []models.Notification
	if err := f.db.Order("recipient_id").Find(&rows).Error; err != nil {
		t.Fatalf("failed to load notifications: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d notification rows, want 2", len(rows))
	}
	for i, wantRecipient := range []uint{2, 3} {
		row := rows[i]
		if row.RecipientID != wantRecipient {
			t.Errorf("row %d recipient = %d, want %d", i, row.RecipientID, wantRecipient)
		}
		if row.ActorID != 1 {
			t.Errorf("row %d actor = %d, want 1", i, row.ActorID)
		}
		if row.Verb != models.VerbNewPost {
			t.Errorf("row %d verb = %q, want %q", i, row.Verb, models.VerbNewPost)
		}
		if row.PostID != post.ID.Hex() {
			t.Errorf("row %d post ID = %q, want %q", i, row.PostID, post.ID.Hex())
		}
		if row.IsRead {
			t.Errorf("row %d created already read", i)
		}
	}

	if len(f.publisher.published) != 2 {
		t.Fatalf("got %d publishes, want 2", len(f.publisher.published))
	}
	groups := map[string]bool{}
	for _, p := range f.publisher.published {
		groups[p.groupKey] = true
		payload, ok := p.message.(NotificationPayload)
		if !ok {
			t.Fatalf("published message has type %T, want NotificationPayload", p.message)
		}
		if payload.Verb != models.VerbNewPost {
			t.Errorf("payload verb = %q, want %q", payload.Verb, models.VerbNewPost)
		}
		if payload.PostTitle != "Hello" || payload.PostSlug != "hello" {
			t.Errorf("payload post = %q/%q, want Hello/hello", payload.PostTitle, payload.PostSlug)
		}
		if payload.ActorEmail != "alice@example.com" || payload.ActorID != 1 {
			t.Errorf("payload actor = %q/%d, want alice@example.com/1", payload.ActorEmail, payload.ActorID)
		}
	}
	if !groups[ws.GroupKey(2)] || !groups[ws.GroupKey(3)] {
		t.Errorf("published groups = %v, want user_2 and user_3", groups)
	}
}

func TestNotifyFollowersWithNoFollowersIsNoOp(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, 1, "alice@example.com")

	post := testPost(1, "Hello", "hello")
	if err := f.orchestrator.NotifyFollowers(context.Background(), 1, post); err != nil {
		t.Fatalf("NotifyFollowers failed: %v", err)
	}

	var count int64
	f.db.Model(&models.Notification{}).Count(&count)
	if count != 0 {
		t.Errorf("got %d notification rows, want 0", count)
	}
	if len(f.publisher.published) != 0 {
		t.Errorf("got %d publishes, want 0", len(f.publisher.published))
	}
}

func TestNotifyFollowersSkipsSelfFollow(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, 1, "alice@example.com")
	f.addFollow(t, 1, 1)

	post := testPost(1, "Hello", "hello")
	if err := f.orchestrator.NotifyFollowers(context.Background(), 1, post); err != nil {
		t.Fatalf("NotifyFollowers failed: %v", err)
	}

	var count int64
	f.db.Model(&models.Notification{}).Count(&count)
	if count != 0 {
		t.Errorf("self-follow produced %d notification rows, want 0", count)
	}
	if len(f.publisher.published) != 0 {
		t.Errorf("self-follow produced %d publishes, want 0", len(f.publisher.published))
	}
}

// failingNotificationRepository simulates a storage outage
type failingNotificationRepository struct{}

var errStorage = errors.New("storage down")

func (failingNotificationRepository) CreateNotification(*models.Notification) error { return errStorage }
func (failingNotificationRepository) CreateNotifications([]models.Notification) error {
	return errStorage
}
func (failingNotificationRepository) GetByRecipientID(uint, int, int) ([]models.Notification, int64, error) {
	return nil, 0, errStorage
}
func (failingNotificationRepository) GetUnreadCount(uint) (int64, error) { return 0, errStorage }
func (failingNotificationRepository) MarkAsRead(uint, uint) error        { return errStorage }
func (failingNotificationRepository) MarkAllAsRead(uint) error           { return errStorage }

func TestNotifyFollowersFailsWhenDurableWriteFails(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, 1, "alice@example.com")
	f.addUser(t, 2, "bob@example.com")
	f.addFollow(t, 2, 1)

	publisher := &recordingPublisher{}
	orchestrator := NewOrchestrator(
		repositories.NewPostgresFollowRepository(f.db),
		failingNotificationRepository{},
		repositories.NewPostgresUserRepository(f.db),
		publisher,
	)

	err := orchestrator.NotifyFollowers(context.Background(), 1, testPost(1, "Hello", "hello"))
	if !errors.Is(err, errStorage) {
		t.Fatalf("error = %v, want wrapped storage error", err)
	}
	// No live push may happen when the durable write failed
	if len(publisher.published) != 0 {
		t.Errorf("got %d publishes after failed write, want 0", len(publisher.published))
	}
}

func TestNotifyFollowStoresAndPushes(t *testing.T) {
	f := newFixture(t)
	actor := f.addUser(t, 1, "alice@example.com")
	f.addUser(t, 2, "bob@example.com")

	if err := f.orchestrator.NotifyFollow(actor, 2); err != nil {
		t.Fatalf("NotifyFollow failed: %v", err)
	}

	var row models.Notification
	if err := f.db.First(&row).Error; err != nil {
		t.Fatalf("notification row missing: %v", err)
	}
	if row.Verb != models.VerbNewFollower || row.RecipientID != 2 || row.ActorID != 1 {
		t.Errorf("row = %+v, want new_follower from 1 to 2", row)
	}
	if row.PostID != "" {
		t.Errorf("follow notification carries post ID %q, want empty", row.PostID)
	}

	if len(f.publisher.published) != 1 {
		t.Fatalf("got %d publishes, want 1", len(f.publisher.published))
	}
	if f.publisher.published[0].groupKey != ws.GroupKey(2) {
		t.Errorf("published to %q, want %q", f.publisher.published[0].groupKey, ws.GroupKey(2))
	}
	payload := f.publisher.published[0].message.(NotificationPayload)
	if payload.PostTitle != "" || payload.PostSlug != "" {
		t.Errorf("follow payload carries post fields: %+v", payload)
	}
}

func TestSelfDirectedEventsAreSuppressed(t *testing.T) {
	f := newFixture(t)
	actor := f.addUser(t, 1, "alice@example.com")

	if err := f.orchestrator.NotifyPostLiked(actor, testPost(1, "Mine", "mine")); err != nil {
		t.Fatalf("NotifyPostLiked failed: %v", err)
	}
	if err := f.orchestrator.NotifyNewComment(actor, testPost(1, "Mine", "mine")); err != nil {
		t.Fatalf("NotifyNewComment failed: %v", err)
	}
	if err := f.orchestrator.NotifyFollow(actor, 1); err != nil {
		t.Fatalf("NotifyFollow failed: %v", err)
	}

	var count int64
	f.db.Model(&models.Notification{}).Count(&count)
	if count != 0 {
		t.Errorf("self-directed events produced %d rows, want 0", count)
	}
	if len(f.publisher.published) != 0 {
		t.Errorf("self-directed events produced %d publishes, want 0", len(f.publisher.published))
	}
}

func TestNotifyPostLikedTargetsAuthor(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, 1, "alice@example.com")
	actor := f.addUser(t, 2, "bob@example.com")

	post := testPost(1, "Hello", "hello")
	if err := f.orchestrator.NotifyPostLiked(actor, post); err != nil {
		t.Fatalf("NotifyPostLiked failed: %v", err)
	}

	var row models.Notification
	if err := f.db.First(&row).Error; err != nil {
		t.Fatalf("notification row missing: %v", err)
	}
	if row.RecipientID != 1 || row.ActorID != 2 || row.Verb != models.VerbPostLiked {
		t.Errorf("row = %+v, want post_liked from 2 to 1", row)
	}

	payload := f.publisher.published[0].message.(NotificationPayload)
	if payload.Verb != models.VerbPostLiked || payload.PostSlug != "hello" {
		t.Errorf("payload = %+v, want post_liked for slug hello", payload)
	}
}
