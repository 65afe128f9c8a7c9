// Package gorm provides GORM-based database operations for prompt-companion.
package gorm

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lukaszraczylo/prompt-companion/pkg/models"
)

// GORM Models

// SubpromptRecord is the persisted form of a subprompt. Order tokens and
// trigger words are stored as JSON text columns.
type SubpromptRecord struct {
	ID             string                 `gorm:"primaryKey;type:text"`
	Name           string                 `gorm:"type:text;not null;index;uniqueIndex:idx_subprompts_folder_name,priority:2"`
	FolderID       string                 `gorm:"type:text;index;uniqueIndex:idx_subprompts_folder_name,priority:1;default:''"`
	Positive       string                 `gorm:"type:text"`
	Negative       string                 `gorm:"type:text"`
	TriggerWords   models.JSONStringArray `gorm:"type:text"`                     // JSON array
	OrderTokens    models.JSONStringArray `gorm:"column:order_tokens;type:text"` // JSON array
	CreatedAt      string                 `gorm:"not null"`
	CreatedAtEpoch int64                  `gorm:"not null"`
	UpdatedAt      string                 `gorm:"not null"`
	UpdatedAtEpoch int64                  `gorm:"index:idx_subprompts_updated,sort:desc;not null"`
}

func (SubpromptRecord) TableName() string { return "subprompts" }

// BeforeCreate hook to ensure ID and timestamps are set.
func (r *SubpromptRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	now := time.Now()
	if r.CreatedAtEpoch == 0 {
		r.CreatedAtEpoch = now.UnixMilli()
	}
	if r.CreatedAt == "" {
		r.CreatedAt = now.Format(time.RFC3339)
	}
	if r.UpdatedAtEpoch == 0 {
		r.UpdatedAtEpoch = now.UnixMilli()
	}
	if r.UpdatedAt == "" {
		r.UpdatedAt = now.Format(time.RFC3339)
	}
	return nil
}

// FolderRecord is the persisted form of a folder.
type FolderRecord struct {
	ID             string `gorm:"primaryKey;type:text"`
	Name           string `gorm:"type:text;not null;uniqueIndex:idx_folders_parent_name,priority:2"`
	ParentID       string `gorm:"type:text;index;uniqueIndex:idx_folders_parent_name,priority:1;default:''"`
	CreatedAt      string `gorm:"not null"`
	CreatedAtEpoch int64  `gorm:"not null"`
	UpdatedAt      string `gorm:"not null"`
	UpdatedAtEpoch int64  `gorm:"not null"`
}

func (FolderRecord) TableName() string { return "folders" }

// BeforeCreate hook to ensure ID and timestamps are set.
func (r *FolderRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	now := time.Now()
	if r.CreatedAtEpoch == 0 {
		r.CreatedAtEpoch = now.UnixMilli()
	}
	if r.CreatedAt == "" {
		r.CreatedAt = now.Format(time.RFC3339)
	}
	if r.UpdatedAtEpoch == 0 {
		r.UpdatedAtEpoch = now.UnixMilli()
	}
	if r.UpdatedAt == "" {
		r.UpdatedAt = now.Format(time.RFC3339)
	}
	return nil
}

// Model conversions

func toModelSubprompt(r *SubpromptRecord) *models.Subprompt {
	return &models.Subprompt{
		ID:           r.ID,
		Name:         r.Name,
		Positive:     r.Positive,
		Negative:     r.Negative,
		TriggerWords: []string(r.TriggerWords),
		Order:        []string(r.OrderTokens),
		FolderID:     r.FolderID,
	}
}

func toModelSubprompts(records []SubpromptRecord) []*models.Subprompt {
	out := make([]*models.Subprompt, len(records))
	for i := range records {
		out[i] = toModelSubprompt(&records[i])
	}
	return out
}

func fromModelSubprompt(m *models.Subprompt) *SubpromptRecord {
	return &SubpromptRecord{
		ID:           m.ID,
		Name:         m.Name,
		FolderID:     m.FolderID,
		Positive:     m.Positive,
		Negative:     m.Negative,
		TriggerWords: models.JSONStringArray(m.TriggerWords),
		OrderTokens:  models.JSONStringArray(m.Order),
	}
}

func toModelFolder(r *FolderRecord) *models.Folder {
	return &models.Folder{
		ID:       r.ID,
		Name:     r.Name,
		ParentID: r.ParentID,
	}
}

func toModelFolders(records []FolderRecord) []*models.Folder {
	out := make([]*models.Folder, len(records))
	for i := range records {
		out[i] = toModelFolder(&records[i])
	}
	return out
}
