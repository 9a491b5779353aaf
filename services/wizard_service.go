package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"pfe-report-api/models"
	"pfe-report-api/utils"

	"github.com/go-playground/validator/v10"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// WizardStep is one state of the submission wizard. Transitions are
// forward-only through Next (gated by the step validator) and backward
// through Previous (unconditional).
type WizardStep string

const (
	StepMetadata  WizardStep = "metadata"
	StepFile      WizardStep = "file"
	StepChecklist WizardStep = "checklist"
	StepSubmitted WizardStep = "submitted"
)

var (
	ErrUnknownStep       = errors.New("unknown wizard step")
	ErrNoDraft           = errors.New("no draft in progress")
	ErrReportNotFound    = errors.New("report not found")
	ErrNotReportAuthor   = errors.New("not the report author")
	ErrNotAwaitingRework = errors.New("report is not awaiting revision")
)

var wizardOrder = []WizardStep{StepMetadata, StepFile, StepChecklist, StepSubmitted}

func stepIndex(step WizardStep) int {
	for i, s := range wizardOrder {
		if s == step {
			return i
		}
	}
	return -1
}

// NextStep returns the step after cur; ok is false at the end.
func NextStep(cur WizardStep) (WizardStep, bool) {
	i := stepIndex(cur)
	if i < 0 || i >= len(wizardOrder)-1 {
		return cur, false
	}
	return wizardOrder[i+1], true
}

// PrevStep returns the step before cur; ok is false at the beginning.
// Going back never requires validation.
func PrevStep(cur WizardStep) (WizardStep, bool) {
	i := stepIndex(cur)
	if i <= 0 {
		return cur, false
	}
	return wizardOrder[i-1], true
}

// ReportMetadata is the step-one payload of the wizard.
type ReportMetadata struct {
	Title           string   `json:"title" validate:"required,min=10"`
	AuthorFirstName string   `json:"author_first_name" validate:"required"`
	AuthorLastName  string   `json:"author_last_name" validate:"required"`
	StudentNumber   string   `json:"student_number" validate:"required"`
	Email           string   `json:"email" validate:"required,email"`
	Specialty       string   `json:"specialty" validate:"required"`
	AcademicYear    string   `json:"academic_year" validate:"required"`
	SupervisorID    int      `json:"supervisor_id" validate:"required"`
	DefenseDate     string   `json:"defense_date" validate:"required"`
	Keywords        []string `json:"keywords" validate:"required,min=3,max=10,dive,required"`
	Abstract        string   `json:"abstract" validate:"required,min=200"`
}

var metadataValidate = func() *validator.Validate {
	v := validator.New()
	// report errors under the json field names the client sent
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}()

var metadataMessages = map[string]string{
	"title":             "Title must be at least 10 characters",
	"author_first_name": "Author first name is required",
	"author_last_name":  "Author last name is required",
	"student_number":    "Student number is required",
	"email":             "A valid email address is required",
	"specialty":         "Specialty is required",
	"academic_year":     "Academic year is required",
	"supervisor_id":     "A supervisor must be assigned",
	"defense_date":      "Defense date is required",
	"keywords":          "Between 3 and 10 keywords are required",
	"abstract":          "Abstract must be at least 200 characters",
}

// ValidateMetadata returns field-keyed errors; an empty map means the step
// passes. Field errors never block other fields from being edited, so all
// violations are reported at once.
func ValidateMetadata(meta *ReportMetadata, policy Policy) map[string]string {
	fieldErrors := map[string]string{}

	if err := metadataValidate.Struct(meta); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				field := strings.SplitN(fe.Namespace(), ".", 2)[1]
				field = strings.SplitN(field, "[", 2)[0]
				if msg, ok := metadataMessages[field]; ok {
					fieldErrors[field] = msg
				} else {
					fieldErrors[field] = fmt.Sprintf("Invalid value for %s", field)
				}
			}
		} else {
			fieldErrors["metadata"] = err.Error()
		}
	}

	if meta.Email != "" && utils.ValidateEmail(meta.Email) &&
		!utils.HasInstitutionalDomain(meta.Email, policy.EmailDomain) {
		fieldErrors["email"] = fmt.Sprintf("Email must belong to the %s domain", policy.EmailDomain)
	}

	return fieldErrors
}

// ValidateFileMeta enforces the file-step constraints on the descriptor the
// client holds: exactly one PDF, within the size limit. The message names
// the exact violated constraint.
func ValidateFileMeta(name string, size int64, contentType string, policy Policy) map[string]string {
	fieldErrors := map[string]string{}

	if strings.TrimSpace(name) == "" {
		fieldErrors["file"] = "A report file is required"
		return fieldErrors
	}
	if !strings.HasSuffix(strings.ToLower(name), ".pdf") || !utils.IsPDFContentType(contentType) {
		fieldErrors["file"] = "Only PDF files are accepted"
		return fieldErrors
	}
	if size > policy.MaxFileSizeBytes() {
		fieldErrors["file"] = fmt.Sprintf("File exceeds the %d MB limit", policy.MaxFileSizeMB)
	}
	return fieldErrors
}

// ValidateSubmissionChecklist enforces the checklist-step gate: every item
// checked, optional included.
func ValidateSubmissionChecklist(state ChecklistState) map[string]string {
	if submissionTemplate.AllChecked(state) {
		return map[string]string{}
	}
	return map[string]string{"checklist": "All checklist items must be confirmed before submitting"}
}

// WizardService drives the multi-step submission flow and the final atomic
// submit.
type WizardService struct {
	db         *gorm.DB
	drafts     *DraftService
	checklists *ChecklistService
	history    *HistoryService
	events     EventPublisher
}

func NewWizardService(db *gorm.DB, drafts *DraftService, checklists *ChecklistService, history *HistoryService, events EventPublisher) *WizardService {
	return &WizardService{db: db, drafts: drafts, checklists: checklists, history: history, events: events}
}

// Advance moves the draft forward after validating the current step, or
// backward unconditionally. It returns the new step, or field errors when
// the gate refuses.
func (s *WizardService) Advance(userID int, direction string) (WizardStep, map[string]string, error) {
	draft, err := s.drafts.Load(userID)
	if err != nil {
		return "", nil, err
	}
	if draft == nil {
		return "", nil, ErrNoDraft
	}

	cur := WizardStep(draft.CurrentStep)
	if stepIndex(cur) < 0 {
		return "", nil, fmt.Errorf("%w: %s", ErrUnknownStep, draft.CurrentStep)
	}

	if direction == "previous" {
		prev, ok := PrevStep(cur)
		if !ok {
			return cur, nil, nil
		}
		if err := s.drafts.SetStep(userID, prev); err != nil {
			return "", nil, err
		}
		return prev, nil, nil
	}

	fieldErrors, err := s.validateStep(draft, cur)
	if err != nil {
		return "", nil, err
	}
	if len(fieldErrors) > 0 {
		return cur, fieldErrors, nil
	}

	next, ok := NextStep(cur)
	if !ok {
		return cur, nil, nil
	}
	if err := s.drafts.SetStep(userID, next); err != nil {
		return "", nil, err
	}
	return next, nil, nil
}

func (s *WizardService) validateStep(draft *models.ReportDraft, step WizardStep) (map[string]string, error) {
	policy := GetPolicy(s.db)

	switch step {
	case StepMetadata:
		meta, err := decodeDraftMetadata(draft.FormData)
		if err != nil {
			return nil, err
		}
		return ValidateMetadata(meta, policy), nil
	case StepFile:
		var name, fileType string
		var size int64
		if draft.FileName != nil {
			name = *draft.FileName
		}
		if draft.FileSize != nil {
			size = *draft.FileSize
		}
		if draft.FileType != nil {
			fileType = *draft.FileType
		}
		return ValidateFileMeta(name, size, fileType, policy), nil
	case StepChecklist:
		state, err := decodeDraftChecklist(draft.FormData)
		if err != nil {
			return nil, err
		}
		return ValidateSubmissionChecklist(state), nil
	case StepSubmitted:
		return map[string]string{}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownStep, step)
}

func decodeDraftMetadata(formData datatypes.JSON) (*ReportMetadata, error) {
	var meta ReportMetadata
	if len(formData) > 0 {
		if err := json.Unmarshal(formData, &meta); err != nil {
			return nil, fmt.Errorf("invalid draft form data: %w", err)
		}
	}
	return &meta, nil
}

func decodeDraftChecklist(formData datatypes.JSON) (ChecklistState, error) {
	var wrapper struct {
		Checklist ChecklistState `json:"checklist"`
	}
	if len(formData) > 0 {
		if err := json.Unmarshal(formData, &wrapper); err != nil {
			return nil, fmt.Errorf("invalid draft form data: %w", err)
		}
	}
	if wrapper.Checklist == nil {
		wrapper.Checklist = ChecklistState{}
	}
	return wrapper.Checklist, nil
}

// SubmissionInput is the assembled payload of the final submit action.
type SubmissionInput struct {
	Metadata  *ReportMetadata
	Checklist ChecklistState
	File      *models.FileUpload
}

// Submit validates every step once more and creates the report in a single
// transaction: file row, report row, both checklist rows, history entries,
// draft purge. On any error nothing persists and the draft survives; there
// is no partial submission state.
func (s *WizardService) Submit(authorID int, in *SubmissionInput) (*models.Report, map[string]string, error) {
	policy := GetPolicy(s.db)

	fieldErrors := ValidateMetadata(in.Metadata, policy)
	if in.File == nil {
		fieldErrors["file"] = "A report file is required"
	} else {
		for k, v := range ValidateFileMeta(in.File.OriginalName, in.File.FileSize, in.File.MimeType, policy) {
			fieldErrors[k] = v
		}
	}
	for k, v := range ValidateSubmissionChecklist(in.Checklist) {
		fieldErrors[k] = v
	}
	if len(fieldErrors) > 0 {
		return nil, fieldErrors, nil
	}

	keywords, err := json.Marshal(in.Metadata.Keywords)
	if err != nil {
		return nil, nil, err
	}
	checklistRaw, err := EncodeChecklistState(in.Checklist)
	if err != nil {
		return nil, nil, err
	}
	defenseDate, err := time.Parse("2006-01-02", in.Metadata.DefenseDate)
	if err != nil {
		return nil, map[string]string{"defense_date": "Defense date must be YYYY-MM-DD"}, nil
	}

	var report models.Report
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(in.File).Error; err != nil {
			return fmt.Errorf("failed to persist report file: %w", err)
		}

		now := time.Now()
		report = models.Report{
			AuthorID:     authorID,
			SupervisorID: in.Metadata.SupervisorID,
			Specialty:    in.Metadata.Specialty,
			AcademicYear: in.Metadata.AcademicYear,
			Title:        in.Metadata.Title,
			Abstract:     in.Metadata.Abstract,
			Keywords:     datatypes.JSON(keywords),
			DefenseDate:  &defenseDate,
			FileID:       &in.File.FileID,
			Status:       models.StatusPendingValidation,
			SubmittedAt:  &now,
			CreateAt:     now,
			UpdateAt:     now,
		}
		if err := tx.Create(&report).Error; err != nil {
			return fmt.Errorf("failed to create report: %w", err)
		}

		// intake is implicit: the history keeps both hops visible
		draftStatus := models.StatusDraft
		submitted := models.StatusSubmitted
		if err := s.history.Record(tx, report.ReportID, &draftStatus, models.StatusSubmitted, authorID, nil); err != nil {
			return err
		}
		if err := s.history.Record(tx, report.ReportID, &submitted, models.StatusPendingValidation, authorID, nil); err != nil {
			return err
		}

		submissionChecklist := models.ReportChecklist{
			ReportID: report.ReportID,
			Kind:     models.ChecklistKindSubmission,
			Items:    checklistRaw,
			CreateAt: now,
			UpdateAt: now,
		}
		if err := tx.Create(&submissionChecklist).Error; err != nil {
			return fmt.Errorf("failed to store submission checklist: %w", err)
		}

		if _, err := s.checklists.GetOrCreate(tx, report.ReportID, models.ChecklistKindReview); err != nil {
			return fmt.Errorf("failed to prepare review checklist: %w", err)
		}

		return s.drafts.Purge(tx, authorID)
	})
	if err != nil {
		return nil, nil, err
	}

	s.events.Publish(ReportEvent{
		Type:          EventReportSubmitted,
		ReportID:      report.ReportID,
		ActorID:       authorID,
		NotifyStudent: true,
	})

	return &report, nil, nil
}

// Resubmit loops a revision_requested report back to pending_validation,
// keeping the report identity. A replacement file is optional.
func (s *WizardService) Resubmit(authorID, reportID int, replacement *models.FileUpload) (*models.Report, error) {
	var report models.Report

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("report_id = ? AND delete_at IS NULL", reportID).First(&report).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrReportNotFound
			}
			return err
		}
		if report.AuthorID != authorID {
			return ErrNotReportAuthor
		}
		if report.Status != models.StatusRevisionRequested {
			return ErrNotAwaitingRework
		}

		now := time.Now()
		updates := map[string]interface{}{
			"status":       models.StatusPendingValidation,
			"submitted_at": now,
			"update_at":    now,
		}
		if replacement != nil {
			if err := tx.Create(replacement).Error; err != nil {
				return fmt.Errorf("failed to persist replacement file: %w", err)
			}
			updates["file_id"] = replacement.FileID
		}
		if err := tx.Model(&models.Report{}).
			Where("report_id = ?", report.ReportID).
			Updates(updates).Error; err != nil {
			return err
		}

		old := report.Status
		if err := s.history.Record(tx, report.ReportID, &old, models.StatusPendingValidation, authorID, nil); err != nil {
			return err
		}
		report.Status = models.StatusPendingValidation
		report.SubmittedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.events.Publish(ReportEvent{
		Type:     EventReportResubmitted,
		ReportID: report.ReportID,
		ActorID:  authorID,
	})

	return &report, nil
}
