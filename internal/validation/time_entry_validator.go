package validation

import (
	"errors"
	"time"

	"ado-time-tracker/internal/domain"
)

// TimeEntryValidator provides validation for TimeEntry-related operations
type TimeEntryValidator struct {
	validator         *Validator
	workItemValidator *WorkItemValidator
}

// NewTimeEntryValidator creates a new time entry validator
func NewTimeEntryValidator() *TimeEntryValidator {
	return NewTimeEntryValidatorWithClock(time.Now)
}

// NewTimeEntryValidatorWithClock creates a validator judging dates against now
func NewTimeEntryValidatorWithClock(now func() time.Time) *TimeEntryValidator {
	return &TimeEntryValidator{
		validator:         NewValidatorWithClock(now),
		workItemValidator: NewWorkItemValidator(),
	}
}

// ValidateManualEntry validates a manually recorded entry. The rounded
// duration must be at least one minute.
func (tev *TimeEntryValidator) ValidateManualEntry(item domain.WorkItem, startTime, endTime time.Time, description string) error {
	validationError := NewValidationError()

	if err := tev.workItemValidator.ValidateWorkItemRef(item.OrganizationID, item.ID); err != nil {
		validationError.Errors = append(validationError.Errors, fieldErrors(err)...)
	}

	if startTime.IsZero() {
		validationError.AddRequiredError("start_time")
	} else if !tev.validator.IsReasonableDate(startTime) {
		validationError.AddInvalidValueError("start_time", startTime, "must be within reasonable date range")
	}

	if endTime.IsZero() {
		validationError.AddRequiredError("end_time")
	} else if !startTime.IsZero() {
		if !tev.validator.IsValidTimeRange(startTime, endTime) {
			validationError.AddInvalidRangeError("time_range", map[string]time.Time{
				"start": startTime,
				"end":   endTime,
			}, "end time must be after start time")
		} else if duration := endTime.Sub(startTime); !tev.validator.IsValidDuration(duration) {
			validationError.AddInvalidValueError("duration", duration, "must be at most 24 hours")
		} else if duration < 30*time.Second {
			validationError.AddInvalidValueError("duration", duration, "must round to at least one minute")
		}
	}

	if !tev.validator.IsValidStringLength(description, MaxDescriptionLength) {
		validationError.AddInvalidLengthError("description", description, MaxDescriptionLength)
	}

	return validationError.orNil()
}

// ValidateTimeEntryID validates a time entry ID
func (tev *TimeEntryValidator) ValidateTimeEntryID(id string) error {
	validationError := NewValidationError()
	if !tev.validator.IsValidEntryID(id) {
		validationError.AddInvalidFormatError("time_entry_id", id, "UUID")
	}
	return validationError.orNil()
}

// ValidateTimeEntryIDs validates every id in a selection
func (tev *TimeEntryValidator) ValidateTimeEntryIDs(ids []string) error {
	validationError := NewValidationError()
	for _, id := range ids {
		if !tev.validator.IsValidEntryID(id) {
			validationError.AddInvalidFormatError("time_entry_id", id, "UUID")
		}
	}
	return validationError.orNil()
}

// ValidateSearchOptions validates search options for time entries
func (tev *TimeEntryValidator) ValidateSearchOptions(opts domain.SearchOptions) error {
	validationError := NewValidationError()

	if !tev.validator.IsValidDateRange(opts.StartTime, opts.EndTime) {
		validationError.AddInvalidRangeError("date_range", map[string]interface{}{
			"start": opts.StartTime,
			"end":   opts.EndTime,
		}, "end time must be after or equal to start time")
	}

	if opts.WorkItemID != nil && !tev.validator.IsValidWorkItemID(*opts.WorkItemID) {
		validationError.AddInvalidValueError("work_item_id", *opts.WorkItemID, "must be a positive integer")
	}

	if opts.OrganizationID != nil && !tev.validator.IsValidOrganizationID(*opts.OrganizationID) {
		validationError.AddInvalidFormatError("organization", *opts.OrganizationID, "letters, digits, '.', '_' or '-'")
	}

	return validationError.orNil()
}

// fieldErrors unwraps the field errors carried by a validation failure
func fieldErrors(err error) []FieldError {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Errors
	}
	return nil
}
