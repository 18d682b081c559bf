package validation

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxDescriptionLength bounds free-text entry descriptions.
const MaxDescriptionLength = 1000

// MaxEntryDuration bounds a single manual entry.
const MaxEntryDuration = 24 * time.Hour

var organizationIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// Validator provides common validation utilities
type Validator struct {
	now func() time.Time
}

// NewValidator creates a new validator instance using the wall clock
func NewValidator() *Validator {
	return &Validator{now: time.Now}
}

// NewValidatorWithClock creates a validator that judges dates against now
func NewValidatorWithClock(now func() time.Time) *Validator {
	return &Validator{now: now}
}

// IsNonEmptyString checks if a string is not empty after trimming whitespace
func (v *Validator) IsNonEmptyString(s string) bool {
	return strings.TrimSpace(s) != ""
}

// IsValidStringLength checks if a trimmed string is at most max characters
func (v *Validator) IsValidStringLength(s string, max int) bool {
	return len([]rune(strings.TrimSpace(s))) <= max
}

// IsValidWorkItemID checks if a work item id is positive
func (v *Validator) IsValidWorkItemID(id int64) bool {
	return id > 0
}

// IsValidOrganizationID checks the shape of a configured organization id
func (v *Validator) IsValidOrganizationID(id string) bool {
	return organizationIDPattern.MatchString(id)
}

// IsValidEntryID checks that an entry id is a UUID
func (v *Validator) IsValidEntryID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// IsValidTimeRange checks if start time is strictly before end time
func (v *Validator) IsValidTimeRange(startTime, endTime time.Time) bool {
	return startTime.Before(endTime)
}

// IsValidDuration checks if a duration is within reasonable bounds
func (v *Validator) IsValidDuration(duration time.Duration) bool {
	return duration > 0 && duration <= MaxEntryDuration
}

// IsReasonableDate allows dates from ten years ago up to one day ahead
func (v *Validator) IsReasonableDate(t time.Time) bool {
	now := v.now()
	return t.After(now.AddDate(-10, 0, 0)) && t.Before(now.Add(24*time.Hour))
}

// IsValidDateRange checks if a possibly open date range is logical
func (v *Validator) IsValidDateRange(startTime, endTime *time.Time) bool {
	if startTime == nil || endTime == nil {
		return true
	}
	return !endTime.Before(*startTime)
}

// ParseWorkItemID parses numeric-looking text such as "123" or "#123".
func ParseWorkItemID(s string) (int64, bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if s == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
