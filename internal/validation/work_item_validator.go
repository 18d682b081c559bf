package validation

// WorkItemValidator validates references to remote work items
type WorkItemValidator struct {
	validator *Validator
}

// NewWorkItemValidator creates a new work item validator
func NewWorkItemValidator() *WorkItemValidator {
	return &WorkItemValidator{
		validator: NewValidator(),
	}
}

// ValidateWorkItemRef validates an organization and work item id pair
func (wv *WorkItemValidator) ValidateWorkItemRef(organizationID string, workItemID int64) error {
	validationError := NewValidationError()

	if !wv.validator.IsNonEmptyString(organizationID) {
		validationError.AddRequiredError("organization")
	} else if !wv.validator.IsValidOrganizationID(organizationID) {
		validationError.AddInvalidFormatError("organization", organizationID, "letters, digits, '.', '_' or '-'")
	}

	if !wv.validator.IsValidWorkItemID(workItemID) {
		validationError.AddInvalidValueError("work_item_id", workItemID, "must be a positive integer")
	}

	return validationError.orNil()
}

// ValidateSearchText validates free-text work item searches
func (wv *WorkItemValidator) ValidateSearchText(text string) error {
	validationError := NewValidationError()

	if !wv.validator.IsNonEmptyString(text) {
		validationError.AddRequiredError("search_text")
	} else if !wv.validator.IsValidStringLength(text, 255) {
		validationError.AddInvalidLengthError("search_text", text, 255)
	}

	return validationError.orNil()
}
