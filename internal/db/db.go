package db

import (
	"log"
	"os"

	"echoboard/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Init() {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		// Fallback for local dev if not set
		dsn = "host=localhost user=postgres password=postgres dbname=echoboard port=5432 sslmode=disable"
	}

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	log.Println("Database connection established")

	if err := Migrate(DB); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	log.Println("Database migration completed")

	seedDefaults()
}

// Migrate runs the schema migration for every model. Shared with the test
// helpers so production and test schemas cannot drift.
func Migrate(conn *gorm.DB) error {
	return conn.AutoMigrate(
		&models.Workspace{},
		&models.Board{},
		&models.User{},
		&models.Tag{},
		&models.FeedbackItem{},
		&models.Comment{},
		&models.Reaction{},
		&models.Mention{},
		&models.MergeRecord{},
		&models.Notification{},
		&models.Activity{},
		&models.Report{},
	)
}

func seedDefaults() {
	var count int64
	DB.Model(&models.Workspace{}).Count(&count)
	if count > 0 {
		log.Println("Workspace already seeded, skipping")
		return
	}

	ws := models.Workspace{Name: "Default", Slug: "default", OwnerID: 1}
	if err := DB.Create(&ws).Error; err != nil {
		log.Printf("Failed to create default workspace: %v", err)
		return
	}

	boards := []models.Board{
		{WorkspaceID: ws.ID, Name: "Feature Requests", Slug: "features", Description: "Tell us what to build next", AllowAnonymous: true, AllowComments: true},
		{WorkspaceID: ws.ID, Name: "Bug Reports", Slug: "bugs", Description: "Something broken? Let us know", AllowAnonymous: true, AllowComments: true},
		{WorkspaceID: ws.ID, Name: "Announcements", Slug: "announcements", Description: "Changelog and product news", AllowAnonymous: false, AllowComments: false},
	}
	for _, board := range boards {
		if err := DB.Create(&board).Error; err != nil {
			log.Printf("Failed to create board %s: %v", board.Slug, err)
		}
	}
	log.Println("Initial workspace and boards created successfully")
}
