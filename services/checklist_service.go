package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"pfe-report-api/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrUnknownChecklistKind = errors.New("unknown checklist kind")
	ErrUnknownChecklistItem = errors.New("unknown checklist item")
)

// ChecklistItem is a single review criterion. Optional items affect display
// but never the progress denominator.
type ChecklistItem struct {
	Key      string `json:"key"`
	Label    string `json:"label"`
	Required bool   `json:"required"`
}

// ChecklistSection is a named group of criteria with its own completion.
type ChecklistSection struct {
	Name  string          `json:"name"`
	Items []ChecklistItem `json:"items"`
}

// ChecklistTemplate defines the item set of a checklist kind.
type ChecklistTemplate struct {
	Kind     string             `json:"kind"`
	Sections []ChecklistSection `json:"sections"`
}

// ChecklistState is the raw boolean state: section name -> item key -> bool.
type ChecklistState map[string]map[string]bool

// ChecklistProgress is always recomputed from the booleans. Only required
// items count toward Total.
type ChecklistProgress struct {
	Completed  int `json:"completed"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}

// submissionTemplate is the student-side readiness checklist: one flat
// section of fifteen items, all of which must be checked before submission.
var submissionTemplate = &ChecklistTemplate{
	Kind: models.ChecklistKindSubmission,
	Sections: []ChecklistSection{
		{
			Name: "Submission Readiness",
			Items: []ChecklistItem{
				{Key: "title_final", Label: "Report title is final", Required: true},
				{Key: "abstract_complete", Label: "Abstract is complete and proofread", Required: true},
				{Key: "keywords_chosen", Label: "Keywords describe the work", Required: true},
				{Key: "supervisor_confirmed", Label: "Supervisor assignment confirmed", Required: true},
				{Key: "defense_date_set", Label: "Defense date agreed with jury", Required: true},
				{Key: "plagiarism_checked", Label: "Plagiarism check passed", Required: true},
				{Key: "citations_complete", Label: "All sources are cited", Required: true},
				{Key: "figures_labeled", Label: "Figures and tables are labeled", Required: true},
				{Key: "toc_generated", Label: "Table of contents is up to date", Required: true},
				{Key: "page_numbers", Label: "Page numbering is continuous", Required: true},
				{Key: "annexes_attached", Label: "Annexes are attached", Required: true},
				{Key: "cover_page_format", Label: "Cover page follows the template", Required: true},
				{Key: "pdf_exported", Label: "Final document exported as PDF", Required: true},
				{Key: "file_size_checked", Label: "File is under the size limit", Required: true},
				{Key: "final_read_through", Label: "Full read-through done", Required: true},
			},
		},
	},
}

// reviewTemplate is the teacher-side validation checklist: three sections,
// gated at the configured review threshold across all required items.
var reviewTemplate = &ChecklistTemplate{
	Kind: models.ChecklistKindReview,
	Sections: []ChecklistSection{
		{
			Name: "Academic Standards",
			Items: []ChecklistItem{
				{Key: "problem_statement", Label: "Problem statement is clear", Required: true},
				{Key: "methodology_sound", Label: "Methodology is sound", Required: true},
				{Key: "literature_coverage", Label: "Literature review covers the field", Required: true},
				{Key: "results_supported", Label: "Conclusions are supported by results", Required: true},
				{Key: "originality", Label: "Work shows originality", Required: false},
			},
		},
		{
			Name: "Content Quality",
			Items: []ChecklistItem{
				{Key: "structure_logical", Label: "Structure is logical", Required: true},
				{Key: "writing_clarity", Label: "Writing is clear", Required: true},
				{Key: "figures_quality", Label: "Figures support the text", Required: true},
				{Key: "abstract_accurate", Label: "Abstract reflects the content", Required: true},
				{Key: "language_level", Label: "Language level is appropriate", Required: true},
			},
		},
		{
			Name: "Formal Requirements",
			Items: []ChecklistItem{
				{Key: "template_followed", Label: "Institutional template followed", Required: true},
				{Key: "citation_style", Label: "Citation style is consistent", Required: true},
				{Key: "length_within_bounds", Label: "Length within specialty bounds", Required: true},
				{Key: "annexes_referenced", Label: "Annexes referenced from the body", Required: true},
				{Key: "acknowledgements", Label: "Acknowledgements present", Required: false},
			},
		},
	},
}

// TemplateFor returns the checklist template for a kind.
func TemplateFor(kind string) (*ChecklistTemplate, error) {
	switch kind {
	case models.ChecklistKindSubmission:
		return submissionTemplate, nil
	case models.ChecklistKindReview:
		return reviewTemplate, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownChecklistKind, kind)
}

func (t *ChecklistTemplate) findItem(section, key string) (*ChecklistItem, error) {
	for si := range t.Sections {
		if t.Sections[si].Name != section {
			continue
		}
		for ii := range t.Sections[si].Items {
			if t.Sections[si].Items[ii].Key == key {
				return &t.Sections[si].Items[ii], nil
			}
		}
	}
	return nil, fmt.Errorf("%w: %s/%s", ErrUnknownChecklistItem, section, key)
}

// Toggle sets one item and returns the updated state. Unknown items are
// rejected so persisted state never drifts from the template.
func (t *ChecklistTemplate) Toggle(state ChecklistState, section, key string, value bool) (ChecklistState, error) {
	if _, err := t.findItem(section, key); err != nil {
		return nil, err
	}
	if state == nil {
		state = ChecklistState{}
	}
	if state[section] == nil {
		state[section] = map[string]bool{}
	}
	state[section][key] = value
	return state, nil
}

// Progress recomputes completion from the booleans. Only required items
// enter the denominator; zero required items means 0 percent, never NaN.
// The result depends only on the final boolean set, not on toggle order.
func (t *ChecklistTemplate) Progress(state ChecklistState) ChecklistProgress {
	var completed, total int
	for _, section := range t.Sections {
		for _, item := range section.Items {
			if !item.Required {
				continue
			}
			total++
			if state != nil && state[section.Name][item.Key] {
				completed++
			}
		}
	}

	p := ChecklistProgress{Completed: completed, Total: total}
	if total > 0 {
		p.Percentage = int(math.Round(100 * float64(completed) / float64(total)))
	}
	return p
}

// AllChecked reports whether every item, optional included, is checked.
// The submission gate uses this stricter rule.
func (t *ChecklistTemplate) AllChecked(state ChecklistState) bool {
	for _, section := range t.Sections {
		for _, item := range section.Items {
			if state == nil || !state[section.Name][item.Key] {
				return false
			}
		}
	}
	return true
}

// SectionProgress computes per-section completion for display.
func (t *ChecklistTemplate) SectionProgress(state ChecklistState) map[string]ChecklistProgress {
	out := make(map[string]ChecklistProgress, len(t.Sections))
	for _, section := range t.Sections {
		sub := &ChecklistTemplate{Kind: t.Kind, Sections: []ChecklistSection{section}}
		out[section.Name] = sub.Progress(state)
	}
	return out
}

// DecodeChecklistState parses the persisted JSON column.
func DecodeChecklistState(raw datatypes.JSON) (ChecklistState, error) {
	if len(raw) == 0 {
		return ChecklistState{}, nil
	}
	var state ChecklistState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("invalid checklist state: %w", err)
	}
	return state, nil
}

// EncodeChecklistState serializes state for the JSON column.
func EncodeChecklistState(state ChecklistState) (datatypes.JSON, error) {
	if state == nil {
		state = ChecklistState{}
	}
	raw, err := json.Marshal(state)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

// ChecklistService persists checklist state per report.
type ChecklistService struct {
	db *gorm.DB
}

func NewChecklistService(db *gorm.DB) *ChecklistService {
	return &ChecklistService{db: db}
}

// GetOrCreate loads a report's checklist row, creating an empty one on
// first access.
func (s *ChecklistService) GetOrCreate(tx *gorm.DB, reportID int, kind string) (*models.ReportChecklist, error) {
	if tx == nil {
		tx = s.db
	}
	if _, err := TemplateFor(kind); err != nil {
		return nil, err
	}

	var row models.ReportChecklist
	err := tx.Where("report_id = ? AND kind = ?", reportID, kind).First(&row).Error
	if err == nil {
		return &row, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	empty, err := EncodeChecklistState(nil)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	row = models.ReportChecklist{
		ReportID: reportID,
		Kind:     kind,
		Items:    empty,
		CreateAt: now,
		UpdateAt: now,
	}
	if err := tx.Create(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// StateFor reads the stored state without creating a row. A report with no
// checklist row yet simply has nothing checked.
func (s *ChecklistService) StateFor(reportID int, kind string) (ChecklistState, error) {
	if _, err := TemplateFor(kind); err != nil {
		return nil, err
	}
	var row models.ReportChecklist
	err := s.db.Where("report_id = ? AND kind = ?", reportID, kind).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ChecklistState{}, nil
	}
	if err != nil {
		return nil, err
	}
	return DecodeChecklistState(row.Items)
}

// ToggleItem flips one item and returns the recomputed progress in the same
// step, so no stale percentage is ever observable.
func (s *ChecklistService) ToggleItem(reportID int, kind, section, key string, value bool) (ChecklistState, ChecklistProgress, error) {
	template, err := TemplateFor(kind)
	if err != nil {
		return nil, ChecklistProgress{}, err
	}

	var state ChecklistState
	var progress ChecklistProgress

	err = s.db.Transaction(func(tx *gorm.DB) error {
		row, err := s.GetOrCreate(tx, reportID, kind)
		if err != nil {
			return err
		}
		state, err = DecodeChecklistState(row.Items)
		if err != nil {
			return err
		}
		state, err = template.Toggle(state, section, key, value)
		if err != nil {
			return err
		}
		raw, err := EncodeChecklistState(state)
		if err != nil {
			return err
		}
		if err := tx.Model(&models.ReportChecklist{}).
			Where("checklist_id = ?", row.ChecklistID).
			Updates(map[string]interface{}{
				"items":     raw,
				"update_at": time.Now(),
			}).Error; err != nil {
			return err
		}
		progress = template.Progress(state)
		return nil
	})
	if err != nil {
		return nil, ChecklistProgress{}, err
	}
	return state, progress, nil
}

// ProgressFor reads the current state and computes progress. Passing the
// surrounding transaction guarantees the decision gate sees the value as of
// the moment of submission.
func (s *ChecklistService) ProgressFor(tx *gorm.DB, reportID int, kind string) (ChecklistProgress, error) {
	template, err := TemplateFor(kind)
	if err != nil {
		return ChecklistProgress{}, err
	}
	row, err := s.GetOrCreate(tx, reportID, kind)
	if err != nil {
		return ChecklistProgress{}, err
	}
	state, err := DecodeChecklistState(row.Items)
	if err != nil {
		return ChecklistProgress{}, err
	}
	return template.Progress(state), nil
}
