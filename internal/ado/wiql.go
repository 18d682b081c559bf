package ado

import (
	"fmt"
	"strings"
)

// TitleSearchQuery selects items in the connection's project whose title
// contains text.
func TitleSearchQuery(text string, filter Filter) string {
	return buildQuery(fmt.Sprintf("[%s] CONTAINS %s", FieldTitle, quote(text)), filter)
}

// AssignedToMeQuery selects items assigned to the authenticated user.
func AssignedToMeQuery(filter Filter) string {
	return buildQuery(fmt.Sprintf("[%s] = @Me", FieldAssignedTo), filter)
}

func buildQuery(condition string, filter Filter) string {
	clauses := []string{
		fmt.Sprintf("[%s] = @project", FieldProject),
		condition,
	}
	if len(filter.TrackableTypes) > 0 {
		clauses = append(clauses, fmt.Sprintf("[%s] IN (%s)", FieldType, quoteList(filter.TrackableTypes)))
	}
	if len(filter.TerminalStates) > 0 {
		clauses = append(clauses, fmt.Sprintf("[%s] NOT IN (%s)", FieldState, quoteList(filter.TerminalStates)))
	}

	return fmt.Sprintf("SELECT [%s] FROM WorkItems WHERE %s ORDER BY [System.ChangedDate] DESC",
		FieldID, strings.Join(clauses, " AND "))
}

// quote renders a WIQL string literal.
func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func quoteList(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = quote(v)
	}
	return strings.Join(quoted, ", ")
}
