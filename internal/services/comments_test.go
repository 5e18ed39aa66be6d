package services

import (
	"testing"

	"echoboard/internal/apperr"
	"echoboard/internal/identity"
	"echoboard/internal/models"
)

func TestCommentCreate_RootAndCounters(t *testing.T) {
	conn := setupTestDB(t)
	fx := seedFixture(t, conn)
	item := createItem(t, conn, fx.Board, nil)
	svc := NewCommentService(conn)

	comment, err := svc.Create(CreateCommentParams{
		ItemID:   item.ID,
		Identity: identity.Authenticated(fx.Owner.ID),
		Content:  "first!",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if comment.Depth != 0 {
		t.Errorf("expected depth 0 for root comment, got %d", comment.Depth)
	}
	if comment.UpvoteCount != 1 {
		t.Errorf("expected author self-vote, got upvote count %d", comment.UpvoteCount)
	}

	var fresh models.FeedbackItem
	conn.First(&fresh, item.ID)
	if fresh.CommentCount != 1 {
		t.Errorf("expected item comment count 1, got %d", fresh.CommentCount)
	}

	var rows int64
	conn.Model(&models.Reaction{}).
		Where("target_kind = ? AND target_id = ?", models.TargetComment, comment.ID).
		Count(&rows)
	if rows != 1 {
		t.Errorf("expected 1 self-vote ledger row, got %d", rows)
	}
}

func TestCommentCreate_DepthComputation(t *testing.T) {
	conn := setupTestDB(t)
	fx := seedFixture(t, conn)
	item := createItem(t, conn, fx.Board, nil)
	svc := NewCommentService(conn)
	author := identity.Anonymous("fp-a")

	root, err := svc.Create(CreateCommentParams{ItemID: item.ID, Identity: author, Content: "root"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	reply, err := svc.Create(CreateCommentParams{ItemID: item.ID, ParentID: &root.ID, Identity: author, Content: "reply"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply.Depth != 1 {
		t.Errorf("expected depth 1, got %d", reply.Depth)
	}
	nested, err := svc.Create(CreateCommentParams{ItemID: item.ID, ParentID: &reply.ID, Identity: author, Content: "deeper"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if nested.Depth != 2 {
		t.Errorf("expected depth 2, got %d", nested.Depth)
	}

	var parent models.Comment
	conn.First(&parent, root.ID)
	if parent.ReplyCount != 1 {
		t.Errorf("expected root reply count 1, got %d", parent.ReplyCount)
	}
}

func TestCommentCreate_DepthLimit(t *testing.T) {
	conn := setupTestDB(t)
	fx := seedFixture(t, conn)
	item := createItem(t, conn, fx.Board, nil)
	svc := NewCommentService(conn)
	author := identity.Anonymous("fp-a")

	parentID := (*uint)(nil)
	var last *models.Comment
	for depth := 0; depth <= MaxCommentDepth; depth++ {
		comment, err := svc.Create(CreateCommentParams{ItemID: item.ID, ParentID: parentID, Identity: author, Content: "level"})
		if err != nil {
			t.Fatalf("unexpected error at depth %d: %v", depth, err)
		}
		last = comment
		parentID = &comment.ID
	}
	if last.Depth != MaxCommentDepth {
		t.Fatalf("expected to reach depth %d, got %d", MaxCommentDepth, last.Depth)
	}

	if _, err := svc.Create(CreateCommentParams{ItemID: item.ID, ParentID: &last.ID, Identity: author, Content: "too deep"}); !apperr.IsKind(err, apperr.KindForbidden) {
		t.Errorf("expected Forbidden past the depth limit, got %v", err)
	}
}

func TestCommentCreate_PolicyChecks(t *testing.T) {
	conn := setupTestDB(t)
	fx := seedFixture(t, conn)
	svc := NewCommentService(conn)

	lockedBoard := models.Board{WorkspaceID: fx.Workspace.ID, Name: "Locked", Slug: "locked", AllowAnonymous: true, AllowComments: true, IsLocked: true}
	noComments := models.Board{WorkspaceID: fx.Workspace.ID, Name: "Quiet", Slug: "quiet", AllowAnonymous: true, AllowComments: false}
	membersOnly := models.Board{WorkspaceID: fx.Workspace.ID, Name: "Members", Slug: "members", AllowAnonymous: false, AllowComments: true}
	for _, b := range []*models.Board{&lockedBoard, &noComments, &membersOnly} {
		if err := conn.Create(b).Error; err != nil {
			t.Fatalf("failed to create board: %v", err)
		}
	}

	lockedItem := createItem(t, conn, lockedBoard, nil)
	quietItem := createItem(t, conn, noComments, nil)
	membersItem := createItem(t, conn, membersOnly, nil)

	if _, err := svc.Create(CreateCommentParams{ItemID: lockedItem.ID, Identity: identity.Anonymous("fp"), Content: "x"}); !apperr.IsKind(err, apperr.KindForbidden) {
		t.Errorf("expected Forbidden on locked board, got %v", err)
	}
	if _, err := svc.Create(CreateCommentParams{ItemID: quietItem.ID, Identity: identity.Anonymous("fp"), Content: "x"}); !apperr.IsKind(err, apperr.KindForbidden) {
		t.Errorf("expected Forbidden when comments are off, got %v", err)
	}
	if _, err := svc.Create(CreateCommentParams{ItemID: membersItem.ID, Identity: identity.Anonymous("fp"), Content: "x"}); !apperr.IsKind(err, apperr.KindForbidden) {
		t.Errorf("expected Forbidden for anonymous comment on members-only board, got %v", err)
	}
	if _, err := svc.Create(CreateCommentParams{ItemID: membersItem.ID, Identity: identity.Authenticated(fx.Owner.ID), Content: "x"}); err != nil {
		t.Errorf("authenticated comment on members-only board should pass, got %v", err)
	}
	if _, err := svc.Create(CreateCommentParams{ItemID: 9999, Identity: identity.Anonymous("fp"), Content: "x"}); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("expected NotFound for missing item, got %v", err)
	}
}

func TestCommentCreate_ParentMustBelongToItem(t *testing.T) {
	conn := setupTestDB(t)
	fx := seedFixture(t, conn)
	itemA := createItem(t, conn, fx.Board, nil)
	itemB := createItem(t, conn, fx.Board, nil)
	svc := NewCommentService(conn)
	author := identity.Anonymous("fp")

	rootOnA, err := svc.Create(CreateCommentParams{ItemID: itemA.ID, Identity: author, Content: "on A"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Create(CreateCommentParams{ItemID: itemB.ID, ParentID: &rootOnA.ID, Identity: author, Content: "cross"}); !apperr.IsKind(err, apperr.KindInvalid) {
		t.Errorf("expected Invalid for cross-item parent, got %v", err)
	}
}

func TestCommentCounterIntegrity_CreateThenDelete(t *testing.T) {
	conn := setupTestDB(t)
	fx := seedFixture(t, conn)
	item := createItem(t, conn, fx.Board, nil)
	svc := NewCommentService(conn)
	author := identity.Anonymous("fp-a")

	var comments []*models.Comment
	for i := 0; i < 3; i++ {
		comment, err := svc.Create(CreateCommentParams{ItemID: item.ID, Identity: author, Content: "c"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		comments = append(comments, comment)
	}

	if err := svc.Delete(comments[1].ID, author); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var fresh models.FeedbackItem
	conn.First(&fresh, item.ID)
	if fresh.CommentCount != 2 {
		t.Errorf("expected comment count 2 after deleting 1 of 3, got %d", fresh.CommentCount)
	}
	var live int64
	conn.Model(&models.Comment{}).Where("item_id = ?", item.ID).Count(&live)
	if int(live) != fresh.CommentCount {
		t.Errorf("comment count %d drifted from live count %d", fresh.CommentCount, live)
	}
}

func TestCommentDelete_RepairsDriftedCounter(t *testing.T) {
	conn := setupTestDB(t)
	fx := seedFixture(t, conn)
	item := createItem(t, conn, fx.Board, nil)
	svc := NewCommentService(conn)
	author := identity.Anonymous("fp-a")

	first, err := svc.Create(CreateCommentParams{ItemID: item.ID, Identity: author, Content: "a"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Create(CreateCommentParams{ItemID: item.ID, Identity: author, Content: "b"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Simulate external drift; delete must recount, not decrement.
	conn.Model(&models.FeedbackItem{}).Where("id = ?", item.ID).UpdateColumn("comment_count", 40)

	if err := svc.Delete(first.ID, author); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var fresh models.FeedbackItem
	conn.First(&fresh, item.ID)
	if fresh.CommentCount != 1 {
		t.Errorf("expected recounted comment count 1, got %d", fresh.CommentCount)
	}
}

func TestCommentDelete_ReplyCountFloorsAtZero(t *testing.T) {
	conn := setupTestDB(t)
	fx := seedFixture(t, conn)
	item := createItem(t, conn, fx.Board, nil)
	svc := NewCommentService(conn)
	author := identity.Anonymous("fp-a")

	root, err := svc.Create(CreateCommentParams{ItemID: item.ID, Identity: author, Content: "root"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	reply, err := svc.Create(CreateCommentParams{ItemID: item.ID, ParentID: &root.ID, Identity: author, Content: "reply"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Drift the counter below truth; deletion must not push it negative.
	conn.Model(&models.Comment{}).Where("id = ?", root.ID).UpdateColumn("reply_count", 0)

	if err := svc.Delete(reply.ID, author); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var fresh models.Comment
	conn.First(&fresh, root.ID)
	if fresh.ReplyCount != 0 {
		t.Errorf("expected reply count floored at 0, got %d", fresh.ReplyCount)
	}
}

func TestCommentDelete_SubtreeAndPermissions(t *testing.T) {
	conn := setupTestDB(t)
	fx := seedFixture(t, conn)
	member := createMember(t, conn, fx.Workspace, "Mia Member", "mia@example.com", "member")
	item := createItem(t, conn, fx.Board, nil)
	svc := NewCommentService(conn)
	author := identity.Authenticated(member.ID)

	root, err := svc.Create(CreateCommentParams{ItemID: item.ID, Identity: author, Content: "root"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Create(CreateCommentParams{ItemID: item.ID, ParentID: &root.ID, Identity: identity.Anonymous("fp-b"), Content: "child"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// A stranger cannot delete someone else's comment.
	if err := svc.Delete(root.ID, identity.Anonymous("fp-stranger")); !apperr.IsKind(err, apperr.KindForbidden) {
		t.Errorf("expected Forbidden for non-author, got %v", err)
	}

	// The workspace owner can, and the reply subtree goes too.
	if err := svc.Delete(root.ID, identity.Authenticated(fx.Owner.ID)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var remaining int64
	conn.Model(&models.Comment{}).Where("item_id = ?", item.ID).Count(&remaining)
	if remaining != 0 {
		t.Errorf("expected subtree deleted, %d comments remain", remaining)
	}
	var fresh models.FeedbackItem
	conn.First(&fresh, item.ID)
	if fresh.CommentCount != 0 {
		t.Errorf("expected comment count 0, got %d", fresh.CommentCount)
	}
}

func TestCommentEdit_AuthorOnly(t *testing.T) {
	conn := setupTestDB(t)
	fx := seedFixture(t, conn)
	item := createItem(t, conn, fx.Board, nil)
	svc := NewCommentService(conn)
	author := identity.Anonymous("fp-author")

	comment, err := svc.Create(CreateCommentParams{ItemID: item.ID, Identity: author, Content: "v1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := svc.Edit(comment.ID, identity.Authenticated(fx.Owner.ID), "hijack"); !apperr.IsKind(err, apperr.KindForbidden) {
		t.Errorf("expected Forbidden for non-author edit (even owner), got %v", err)
	}

	edited, err := svc.Edit(comment.ID, author, "v2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !edited.IsEdited || edited.EditedAt == nil || edited.Content != "v2" {
		t.Errorf("expected edited comment with timestamp, got %+v", edited)
	}
}

func TestCommentPin_ModeratorOnly(t *testing.T) {
	conn := setupTestDB(t)
	fx := seedFixture(t, conn)
	member := createMember(t, conn, fx.Workspace, "Mia Member", "mia@example.com", "member")
	item := createItem(t, conn, fx.Board, nil)
	svc := NewCommentService(conn)

	comment, err := svc.Create(CreateCommentParams{ItemID: item.ID, Identity: identity.Authenticated(member.ID), Content: "pin me"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := svc.Pin(comment.ID, true, identity.Authenticated(member.ID)); !apperr.IsKind(err, apperr.KindForbidden) {
		t.Errorf("expected Forbidden for plain member, got %v", err)
	}
	if err := svc.Pin(comment.ID, true, identity.Anonymous("fp")); !apperr.IsKind(err, apperr.KindForbidden) {
		t.Errorf("expected Forbidden for anonymous pin, got %v", err)
	}
	if err := svc.Pin(comment.ID, true, identity.Authenticated(fx.Owner.ID)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var fresh models.Comment
	conn.First(&fresh, comment.ID)
	if !fresh.IsPinned {
		t.Error("expected comment to be pinned")
	}
}

func TestCommentList_PinnedFirst(t *testing.T) {
	conn := setupTestDB(t)
	fx := seedFixture(t, conn)
	item := createItem(t, conn, fx.Board, nil)
	svc := NewCommentService(conn)
	author := identity.Anonymous("fp-a")

	if _, err := svc.Create(CreateCommentParams{ItemID: item.ID, Identity: author, Content: "older"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := svc.Create(CreateCommentParams{ItemID: item.ID, Identity: author, Content: "newer"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.Pin(second.ID, true, identity.Authenticated(fx.Owner.ID)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	comments, err := svc.ListForItem(item.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(comments) != 2 || comments[0].ID != second.ID {
		t.Errorf("expected pinned comment first, got order %+v", comments)
	}
}
