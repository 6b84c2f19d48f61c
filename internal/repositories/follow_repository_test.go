package repositories

import (
	"testing"

	"github.com/otabek42/blogium/backend/internal/models"
)

func TestGetFollowerIDs(t *testing.T) {
	db := newTestDB(t)
	repo := NewPostgresFollowRepository(db)

	seedUser(t, db, 1, "author@example.com")
	seedUser(t, db, 2, "fan1@example.com")
	seedUser(t, db, 3, "fan2@example.com")

	for _, followerID := range []uint{2, 3} {
		if err := repo.CreateFollow(&models.Follow{FollowerID: followerID, FollowingID: 1}); err != nil {
			t.Fatalf("CreateFollow failed: %v", err)
		}
	}
	// Unrelated edge to make sure the query filters by following_id
	if err := repo.CreateFollow(&models.Follow{FollowerID: 1, FollowingID: 2}); err != nil {
		t.Fatalf("CreateFollow failed: %v", err)
	}

	ids, err := repo.GetFollowerIDs(1)
	if err != nil {
		t.Fatalf("GetFollowerIDs failed: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("got %d follower IDs, want 2", len(ids))
	}
	got := map[uint]bool{}
	for _, id := range ids {
		got[id] = true
	}
	if !got[2] || !got[3] {
		t.Errorf("follower IDs = %v, want 2 and 3", ids)
	}
}

func TestGetFollowerIDsEmptyAudience(t *testing.T) {
	db := newTestDB(t)
	repo := NewPostgresFollowRepository(db)

	ids, err := repo.GetFollowerIDs(1)
	if err != nil {
		t.Fatalf("GetFollowerIDs failed: %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("got %v, want empty", ids)
	}
}

func TestIsFollowing(t *testing.T) {
	db := newTestDB(t)
	repo := NewPostgresFollowRepository(db)

	if err := repo.CreateFollow(&models.Follow{FollowerID: 1, FollowingID: 2}); err != nil {
		t.Fatalf("CreateFollow failed: %v", err)
	}

	following, err := repo.IsFollowing(1, 2)
	if err != nil {
		t.Fatalf("IsFollowing failed: %v", err)
	}
	if !following {
		t.Error("IsFollowing(1, 2) = false, want true")
	}

	// Direction matters
	reverse, err := repo.IsFollowing(2, 1)
	if err != nil {
		t.Fatalf("IsFollowing failed: %v", err)
	}
	if reverse {
		t.Error("IsFollowing(2, 1) = true, want false")
	}
}

func TestDeleteFollowMissingEdge(t *testing.T) {
	db := newTestDB(t)
	repo := NewPostgresFollowRepository(db)

	if err := repo.DeleteFollow(1, 2); err == nil {
		t.Error("DeleteFollow on a missing edge returned nil, want error")
	}
}

func TestFollowCounts(t *testing.T) {
	db := newTestDB(t)
	repo := NewPostgresFollowRepository(db)

	for _, edge := range []models.Follow{
		{FollowerID: 2, FollowingID: 1},
		{FollowerID: 3, FollowingID: 1},
		{FollowerID: 1, FollowingID: 2},
	} {
		e := edge
		if err := repo.CreateFollow(&e); err != nil {
			t.Fatalf("CreateFollow failed: %v", err)
		}
	}

	followers, err := repo.GetFollowersCount(1)
	if err != nil {
		t.Fatalf("GetFollowersCount failed: %v", err)
	}
	if followers != 2 {
		t.Errorf("followers count = %d, want 2", followers)
	}

	following, err := repo.GetFollowingCount(1)
	if err != nil {
		t.Fatalf("GetFollowingCount failed: %v", err)
	}
	if following != 1 {
		t.Errorf("following count = %d, want 1", following)
	}
}
