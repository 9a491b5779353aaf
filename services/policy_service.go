package services

import (
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"pfe-report-api/models"

	"gorm.io/gorm"
)

// Policy defaults. The submission and review thresholds are deliberately
// independent settings; neither is derived from the other.
const (
	DefaultSubmissionThreshold = 100
	DefaultReviewThreshold     = 80
	DefaultMaxFileSizeMB       = 50
)

// Policy holds the configurable gating rules of the portal.
type Policy struct {
	SubmissionThreshold int
	ReviewThreshold     int
	MaxFileSizeMB       int64
	EmailDomain         string
}

var (
	policyCacheMu sync.RWMutex
	policyCache   *policyCacheEntry
	policyTTL     = 5 * time.Minute
)

type policyCacheEntry struct {
	policy    Policy
	fetchedAt time.Time
}

// MaxFileSizeBytes returns the upload limit in bytes.
func (p Policy) MaxFileSizeBytes() int64 {
	return p.MaxFileSizeMB * 1024 * 1024
}

func defaultPolicy() Policy {
	return Policy{
		SubmissionThreshold: DefaultSubmissionThreshold,
		ReviewThreshold:     DefaultReviewThreshold,
		MaxFileSizeMB:       DefaultMaxFileSizeMB,
		EmailDomain:         strings.TrimSpace(os.Getenv("INSTITUTION_EMAIL_DOMAIN")),
	}
}

// GetPolicy returns the current policy, reading system_config with a short
// TTL cache. Missing keys fall back to defaults; a failed read logs and
// serves defaults rather than blocking the caller.
func GetPolicy(db *gorm.DB) Policy {
	policyCacheMu.RLock()
	cached := policyCache
	policyCacheMu.RUnlock()

	if cached != nil && time.Since(cached.fetchedAt) < policyTTL {
		return cached.policy
	}

	policyCacheMu.Lock()
	defer policyCacheMu.Unlock()

	if policyCache != nil && time.Since(policyCache.fetchedAt) < policyTTL {
		return policyCache.policy
	}

	policy := defaultPolicy()

	var rows []models.SystemConfig
	if err := db.Where("`key` IN ?", []string{
		models.ConfigKeySubmissionThreshold,
		models.ConfigKeyReviewThreshold,
		models.ConfigKeyMaxFileSizeMB,
		models.ConfigKeyEmailDomain,
	}).Find(&rows).Error; err != nil {
		log.Printf("policy: failed to load system_config, using defaults: %v", err)
		return policy
	}

	for _, row := range rows {
		value := strings.TrimSpace(row.Value)
		if value == "" {
			continue
		}
		switch row.Key {
		case models.ConfigKeySubmissionThreshold:
			if n, err := strconv.Atoi(value); err == nil && n >= 0 && n <= 100 {
				policy.SubmissionThreshold = n
			}
		case models.ConfigKeyReviewThreshold:
			if n, err := strconv.Atoi(value); err == nil && n >= 0 && n <= 100 {
				policy.ReviewThreshold = n
			}
		case models.ConfigKeyMaxFileSizeMB:
			if n, err := strconv.ParseInt(value, 10, 64); err == nil && n > 0 {
				policy.MaxFileSizeMB = n
			}
		case models.ConfigKeyEmailDomain:
			policy.EmailDomain = value
		}
	}

	policyCache = &policyCacheEntry{policy: policy, fetchedAt: time.Now()}
	return policy
}

// ClearPolicyCache invalidates the in-memory policy cache.
func ClearPolicyCache() {
	policyCacheMu.Lock()
	defer policyCacheMu.Unlock()
	policyCache = nil
}
