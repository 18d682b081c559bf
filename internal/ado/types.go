// Package ado is a small Azure DevOps work item REST client covering the
// calls the tracker needs: single and batch reads, WIQL queries and the
// CompletedWork update.
package ado

import "strings"

// Field reference names used by the tracker.
const (
	FieldID            = "System.Id"
	FieldTitle         = "System.Title"
	FieldType          = "System.WorkItemType"
	FieldState         = "System.State"
	FieldProject       = "System.TeamProject"
	FieldAssignedTo    = "System.AssignedTo"
	FieldCompletedWork = "Microsoft.VSTS.Scheduling.CompletedWork"
)

// Connection addresses one organization and project.
type Connection struct {
	BaseURL string
	Project string
	Token   string
}

// WorkItem is the subset of remote fields the tracker reads.
type WorkItem struct {
	ID          int64
	Title       string
	Type        string
	State       string
	ProjectName string
	AssignedTo  string
	// CompletedWork is nil when the field has never been set.
	CompletedWork *float64
}

// Filter restricts results to trackable, non-terminal items.
type Filter struct {
	TrackableTypes []string
	TerminalStates []string
}

// Allows reports whether item passes the filter. Comparisons ignore case.
func (f Filter) Allows(item WorkItem) bool {
	if len(f.TrackableTypes) > 0 && !containsFold(f.TrackableTypes, item.Type) {
		return false
	}
	return !containsFold(f.TerminalStates, item.State)
}

func containsFold(list []string, value string) bool {
	for _, v := range list {
		if strings.EqualFold(v, value) {
			return true
		}
	}
	return false
}

type identityRef struct {
	DisplayName string `json:"displayName"`
	UniqueName  string `json:"uniqueName"`
}

type workItemFields struct {
	Title         string       `json:"System.Title"`
	Type          string       `json:"System.WorkItemType"`
	State         string       `json:"System.State"`
	Project       string       `json:"System.TeamProject"`
	AssignedTo    *identityRef `json:"System.AssignedTo"`
	CompletedWork *float64     `json:"Microsoft.VSTS.Scheduling.CompletedWork"`
}

type workItemResponse struct {
	ID     int64          `json:"id"`
	Fields workItemFields `json:"fields"`
}

func (r workItemResponse) toWorkItem() *WorkItem {
	item := &WorkItem{
		ID:            r.ID,
		Title:         r.Fields.Title,
		Type:          r.Fields.Type,
		State:         r.Fields.State,
		ProjectName:   r.Fields.Project,
		CompletedWork: r.Fields.CompletedWork,
	}
	if r.Fields.AssignedTo != nil {
		item.AssignedTo = r.Fields.AssignedTo.DisplayName
	}
	return item
}

type batchResponse struct {
	Count int                `json:"count"`
	Value []workItemResponse `json:"value"`
}

type wiqlRequest struct {
	Query string `json:"query"`
}

type wiqlResponse struct {
	WorkItems []struct {
		ID int64 `json:"id"`
	} `json:"workItems"`
}

type patchOperation struct {
	Op    string      `json:"op"`
	Path  string      `json:"path"`
	Value interface{} `json:"value"`
}

type errorResponse struct {
	Message string `json:"message"`
	TypeKey string `json:"typeKey"`
}
