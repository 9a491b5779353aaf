package services

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"pfe-report-api/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DraftFileMeta mirrors the descriptor of the file attached to a draft.
// Only the metadata is snapshotted; the bytes are uploaded on final submit.
type DraftFileMeta struct {
	Name         string     `json:"name"`
	Size         int64      `json:"size"`
	Type         string     `json:"type"`
	LastModified *time.Time `json:"last_modified,omitempty"`
}

// DraftService is the versioned store for in-progress submissions.
type DraftService struct {
	db *gorm.DB
}

func NewDraftService(db *gorm.DB) *DraftService {
	return &DraftService{db: db}
}

// DraftFingerprint hashes the serialized form data plus the attached file
// name. It is the single source of truth for "has anything changed".
func DraftFingerprint(formData []byte, fileName string) string {
	h := sha256.New()
	h.Write(formData)
	h.Write([]byte{0})
	h.Write([]byte(fileName))
	return hex.EncodeToString(h.Sum(nil))
}

// Load returns the student's draft, or nil when none exists.
func (s *DraftService) Load(userID int) (*models.ReportDraft, error) {
	var draft models.ReportDraft
	err := s.db.Where("user_id = ?", userID).First(&draft).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &draft, nil
}

// Save persists a snapshot. A save whose fingerprint matches the stored one
// is suppressed: the existing snapshot is returned untouched and the second
// return value is false. Otherwise the row is upserted with a bumped version
// and refreshed saved_at.
func (s *DraftService) Save(userID int, formData datatypes.JSON, meta *DraftFileMeta) (*models.ReportDraft, bool, error) {
	fileName := ""
	if meta != nil {
		fileName = meta.Name
	}
	fingerprint := DraftFingerprint(formData, fileName)

	var draft models.ReportDraft
	err := s.db.Where("user_id = ?", userID).First(&draft).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		now := time.Now()
		draft = models.ReportDraft{
			UserID:      userID,
			FormData:    formData,
			Fingerprint: fingerprint,
			Version:     1,
			CurrentStep: string(StepMetadata),
			SavedAt:     now,
			CreateAt:    now,
		}
		applyFileMeta(&draft, meta)
		if err := s.db.Create(&draft).Error; err != nil {
			return nil, false, err
		}
		return &draft, true, nil
	case err != nil:
		return nil, false, err
	}

	if draft.Fingerprint == fingerprint {
		return &draft, false, nil
	}

	draft.FormData = formData
	draft.Fingerprint = fingerprint
	draft.Version++
	draft.SavedAt = time.Now()
	applyFileMeta(&draft, meta)

	if err := s.db.Save(&draft).Error; err != nil {
		return nil, false, err
	}
	return &draft, true, nil
}

func applyFileMeta(draft *models.ReportDraft, meta *DraftFileMeta) {
	if meta == nil || meta.Name == "" {
		draft.FileName = nil
		draft.FileSize = nil
		draft.FileType = nil
		draft.FileModified = nil
		return
	}
	name, size, fileType := meta.Name, meta.Size, meta.Type
	draft.FileName = &name
	draft.FileSize = &size
	draft.FileType = &fileType
	draft.FileModified = meta.LastModified
}

// HasUnsavedChanges compares the current form fingerprint against the last
// saved one. A missing draft always counts as unsaved changes.
func (s *DraftService) HasUnsavedChanges(userID int, formData datatypes.JSON, fileName string) (bool, error) {
	draft, err := s.Load(userID)
	if err != nil {
		return false, err
	}
	if draft == nil {
		return true, nil
	}
	return draft.Fingerprint != DraftFingerprint(formData, fileName), nil
}

// SetStep moves the wizard position stored on the draft.
func (s *DraftService) SetStep(userID int, step WizardStep) error {
	return s.db.Model(&models.ReportDraft{}).
		Where("user_id = ?", userID).
		Update("current_step", string(step)).Error
}

// Purge removes the draft after a successful final submission. It runs in
// the submission transaction so a failed submit keeps the draft intact.
func (s *DraftService) Purge(tx *gorm.DB, userID int) error {
	if tx == nil {
		tx = s.db
	}
	return tx.Where("user_id = ?", userID).Delete(&models.ReportDraft{}).Error
}
