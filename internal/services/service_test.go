package services

import (
	"testing"

	"echoboard/internal/db"
	"echoboard/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}
	if err := db.Migrate(conn); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return conn
}

type fixture struct {
	Workspace models.Workspace
	Board     models.Board
	Owner     models.User
}

// seedFixture creates one workspace with an owner and a fully permissive
// board.
func seedFixture(t *testing.T, conn *gorm.DB) fixture {
	t.Helper()

	owner := models.User{Username: "Olive Owner", Email: "owner@example.com", Password: "x", Role: "owner", IsActive: true}
	if err := conn.Create(&owner).Error; err != nil {
		t.Fatalf("failed to create owner: %v", err)
	}

	ws := models.Workspace{Name: "Acme", Slug: "acme", OwnerID: owner.ID}
	if err := conn.Create(&ws).Error; err != nil {
		t.Fatalf("failed to create workspace: %v", err)
	}
	if err := conn.Model(&owner).UpdateColumn("workspace_id", ws.ID).Error; err != nil {
		t.Fatalf("failed to attach owner: %v", err)
	}
	owner.WorkspaceID = ws.ID

	board := models.Board{WorkspaceID: ws.ID, Name: "Features", Slug: "features", AllowAnonymous: true, AllowComments: true}
	if err := conn.Create(&board).Error; err != nil {
		t.Fatalf("failed to create board: %v", err)
	}

	return fixture{Workspace: ws, Board: board, Owner: owner}
}

func createMember(t *testing.T, conn *gorm.DB, ws models.Workspace, username, email, role string) models.User {
	t.Helper()
	user := models.User{WorkspaceID: ws.ID, Username: username, Email: email, Password: "x", Role: role, IsActive: true}
	if err := conn.Create(&user).Error; err != nil {
		t.Fatalf("failed to create user %s: %v", username, err)
	}
	return user
}

func createItem(t *testing.T, conn *gorm.DB, board models.Board, authorID *uint) models.FeedbackItem {
	t.Helper()
	item := models.FeedbackItem{
		Pid:     "pid" + randSuffix(t, conn),
		BoardID: board.ID,
		UserID:  authorID,
		Title:   "Dark mode",
		Status:  models.ItemStatusPublished,
	}
	if err := conn.Create(&item).Error; err != nil {
		t.Fatalf("failed to create item: %v", err)
	}
	return item
}

// randSuffix keeps fixture pids unique within a test database.
func randSuffix(t *testing.T, conn *gorm.DB) string {
	t.Helper()
	var count int64
	if err := conn.Model(&models.FeedbackItem{}).Count(&count).Error; err != nil {
		t.Fatalf("failed to count items: %v", err)
	}
	return string(rune('a' + count%26))
}
