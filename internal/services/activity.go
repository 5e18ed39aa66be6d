package services

import (
	"log"

	"echoboard/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ActivityService is the audit sink: one structured event per successful
// mutation. Writes never block or fail the mutation that produced them.
type ActivityService struct {
	db *gorm.DB
}

func NewActivityService(db *gorm.DB) *ActivityService {
	return &ActivityService{db: db}
}

func (s *ActivityService) Record(workspaceID uint, userID *uint, action, entityKind string, entityID uint, metadata models.JSONB) error {
	activity := models.Activity{
		EventID:     uuid.NewString(),
		WorkspaceID: workspaceID,
		UserID:      userID,
		Action:      action,
		EntityKind:  entityKind,
		EntityID:    entityID,
		Metadata:    metadata,
	}
	return s.db.Create(&activity).Error
}

// RecordAsync logs the event in the background after the transaction that
// produced it has committed.
func (s *ActivityService) RecordAsync(workspaceID uint, userID *uint, action, entityKind string, entityID uint, metadata models.JSONB) {
	go func() {
		if err := s.Record(workspaceID, userID, action, entityKind, entityID, metadata); err != nil {
			log.Printf("Activity record failed (%s %s/%d): %v", action, entityKind, entityID, err)
		}
	}()
}
