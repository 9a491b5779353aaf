package models

// SystemConfig represents key-value policy settings such as the checklist
// gating thresholds and the institutional email domain.
type SystemConfig struct {
	Key   string `gorm:"primaryKey;column:key" json:"key"`
	Value string `gorm:"column:value" json:"value"`
}

// Policy keys stored in system_config.
const (
	ConfigKeySubmissionThreshold = "submission_checklist_threshold"
	ConfigKeyReviewThreshold     = "review_checklist_threshold"
	ConfigKeyMaxFileSizeMB       = "max_report_file_mb"
	ConfigKeyEmailDomain         = "institutional_email_domain"
)

// TableName specifies the table name for GORM
func (SystemConfig) TableName() string {
	return "system_config"
}
