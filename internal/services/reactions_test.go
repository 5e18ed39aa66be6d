package services

import (
	"testing"

	"echoboard/internal/apperr"
	"echoboard/internal/identity"
	"echoboard/internal/models"
)

func TestReactionToggle_ThreeStateCycle(t *testing.T) {
	conn := setupTestDB(t)
	fx := seedFixture(t, conn)
	item := createItem(t, conn, fx.Board, nil)
	svc := NewReactionService(conn)
	voter := identity.Authenticated(fx.Owner.ID)

	// no reaction -> upvote
	state, err := svc.Toggle(models.TargetPost, item.ID, voter, models.ReactionUpvote)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state.Current != models.ReactionUpvote || state.UpvoteCount != 1 {
		t.Errorf("expected (upvote, 1), got (%s, %d)", state.Current, state.UpvoteCount)
	}

	// same type again -> un-vote
	state, err = svc.Toggle(models.TargetPost, item.ID, voter, models.ReactionUpvote)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state.Current != "" || state.UpvoteCount != 0 {
		t.Errorf("expected (none, 0), got (%s, %d)", state.Current, state.UpvoteCount)
	}

	// upvote, then downvote -> retype
	if _, err := svc.Toggle(models.TargetPost, item.ID, voter, models.ReactionUpvote); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	state, err = svc.Toggle(models.TargetPost, item.ID, voter, models.ReactionDownvote)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state.Current != models.ReactionDownvote {
		t.Errorf("expected current downvote, got %s", state.Current)
	}
	if state.UpvoteCount != 0 {
		t.Errorf("expected upvote count back to 0, got %d", state.UpvoteCount)
	}
	if state.DownvoteCount != 1 {
		t.Errorf("expected downvote count 1, got %d", state.DownvoteCount)
	}
}

func TestReactionToggle_CommentCounters(t *testing.T) {
	conn := setupTestDB(t)
	fx := seedFixture(t, conn)
	item := createItem(t, conn, fx.Board, nil)
	comment := models.Comment{Cid: "c1c1c1c1", ItemID: item.ID, Content: "hi", Fingerprint: "author-fp"}
	if err := conn.Create(&comment).Error; err != nil {
		t.Fatalf("failed to create comment: %v", err)
	}
	svc := NewReactionService(conn)
	voter := identity.Anonymous("fp-1")

	state, err := svc.Toggle(models.TargetComment, comment.ID, voter, models.ReactionDownvote)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state.DownvoteCount != 1 || state.UpvoteCount != 0 {
		t.Errorf("expected (up 0, down 1), got (up %d, down %d)", state.UpvoteCount, state.DownvoteCount)
	}

	state, err = svc.Toggle(models.TargetComment, comment.ID, voter, models.ReactionUpvote)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state.DownvoteCount != 0 || state.UpvoteCount != 1 {
		t.Errorf("expected (up 1, down 0), got (up %d, down %d)", state.UpvoteCount, state.DownvoteCount)
	}

	var fresh models.Comment
	if err := conn.First(&fresh, comment.ID).Error; err != nil {
		t.Fatalf("failed to reload comment: %v", err)
	}
	if fresh.UpvoteCount != 1 || fresh.DownvoteCount != 0 {
		t.Errorf("denormalized counters drifted: up %d down %d", fresh.UpvoteCount, fresh.DownvoteCount)
	}
}

func TestReactionToggle_AtMostOneRowPerIdentity(t *testing.T) {
	conn := setupTestDB(t)
	fx := seedFixture(t, conn)
	item := createItem(t, conn, fx.Board, nil)
	svc := NewReactionService(conn)
	voter := identity.Anonymous("fp-one")

	sequence := []models.ReactionType{
		models.ReactionUpvote,
		models.ReactionDownvote,
		models.ReactionDownvote,
		models.ReactionUpvote,
	}
	for _, rtype := range sequence {
		if _, err := svc.Toggle(models.TargetPost, item.ID, voter, rtype); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var rows int64
		conn.Model(&models.Reaction{}).
			Where("target_kind = ? AND target_id = ? AND voter_key = ?", models.TargetPost, item.ID, voter.VoterKey()).
			Count(&rows)
		if rows > 1 {
			t.Fatalf("expected at most one reaction row, got %d", rows)
		}
	}
}

func TestReactionToggle_AnonymousAndAuthenticatedAreSeparate(t *testing.T) {
	conn := setupTestDB(t)
	fx := seedFixture(t, conn)
	item := createItem(t, conn, fx.Board, nil)
	svc := NewReactionService(conn)

	if _, err := svc.Toggle(models.TargetPost, item.ID, identity.Anonymous("fp-x"), models.ReactionUpvote); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	state, err := svc.Toggle(models.TargetPost, item.ID, identity.Authenticated(fx.Owner.ID), models.ReactionUpvote)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Two distinct identities, two votes. Prior anonymous votes are never
	// inherited by a session.
	if state.UpvoteCount != 2 {
		t.Errorf("expected upvote count 2, got %d", state.UpvoteCount)
	}
}

func TestReactionToggle_InvalidInputs(t *testing.T) {
	conn := setupTestDB(t)
	fx := seedFixture(t, conn)
	item := createItem(t, conn, fx.Board, nil)
	svc := NewReactionService(conn)

	if _, err := svc.Toggle(models.TargetPost, item.ID, identity.Identity{}, models.ReactionUpvote); !apperr.IsKind(err, apperr.KindInvalidIdentity) {
		t.Errorf("expected InvalidIdentity, got %v", err)
	}
	if _, err := svc.Toggle(models.TargetPost, 9999, identity.Anonymous("fp"), models.ReactionUpvote); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("expected NotFound, got %v", err)
	}
	if _, err := svc.Toggle("story", item.ID, identity.Anonymous("fp"), models.ReactionUpvote); !apperr.IsKind(err, apperr.KindInvalid) {
		t.Errorf("expected Invalid for unknown kind, got %v", err)
	}
}

func TestReactionToggle_ArchivedItemRejected(t *testing.T) {
	conn := setupTestDB(t)
	fx := seedFixture(t, conn)
	item := createItem(t, conn, fx.Board, nil)
	conn.Model(&item).Updates(map[string]interface{}{"status": models.ItemStatusArchived})

	svc := NewReactionService(conn)
	if _, err := svc.Toggle(models.TargetPost, item.ID, identity.Anonymous("fp"), models.ReactionUpvote); !apperr.IsKind(err, apperr.KindForbidden) {
		t.Errorf("expected Forbidden on archived item, got %v", err)
	}
}

func TestInitialSelfVote(t *testing.T) {
	conn := setupTestDB(t)
	fx := seedFixture(t, conn)
	item := createItem(t, conn, fx.Board, nil)
	svc := NewReactionService(conn)
	author := identity.Authenticated(fx.Owner.ID)

	if err := svc.InitialSelfVote(models.TargetPost, item.ID, author); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var fresh models.FeedbackItem
	conn.First(&fresh, item.ID)
	if fresh.UpvoteCount != 1 {
		t.Errorf("expected upvote count 1 after self-vote, got %d", fresh.UpvoteCount)
	}
	current, err := svc.CurrentFor(models.TargetPost, item.ID, author)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if current != models.ReactionUpvote {
		t.Errorf("expected standing upvote, got %q", current)
	}
}
