package models

import "time"

// WorkItem is one open piece of estimated work assigned to a resource
type WorkItem struct {
	ID             string     `json:"id,omitempty"`
	Title          string     `json:"title,omitempty"`
	EstimatedHours *float64   `json:"estimated_hours"`
	DueDate        *time.Time `json:"due_date"`
}

// Resource represents a team member whose capacity is planned
type Resource struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	TeamID          string     `json:"team_id,omitempty"`
	WeeklyHours     float64    `json:"weekly_hours"`
	WorkloadPercent float64    `json:"workload_percent"`
	OpenItems       []WorkItem `json:"open_items"`
}

// ItemLoad is the share of one work item that lands inside a window
type ItemLoad struct {
	ItemID string  `json:"item_id"`
	Title  string  `json:"title,omitempty"`
	Hours  float64 `json:"hours"`
}

// CapacityReport is the computed capacity of one resource over a window
type CapacityReport struct {
	ResourceID          string     `json:"resource_id"`
	Name                string     `json:"name"`
	TeamID              string     `json:"team_id,omitempty"`
	DailyHours          float64    `json:"daily_hours"`
	WorkDays            int        `json:"work_days"`
	TotalAvailableHours float64    `json:"total_available_hours"`
	AssignedHours       float64    `json:"assigned_hours"`
	FreeHours           float64    `json:"free_hours"`
	UtilizationPercent  int        `json:"utilization_percent"`
	Overloaded          bool       `json:"overloaded"`
	Items               []ItemLoad `json:"items,omitempty"`
}

// TeamSummary rolls the per-resource reports up into one line
type TeamSummary struct {
	Resources           int     `json:"resources"`
	TotalAvailableHours float64 `json:"total_available_hours"`
	AssignedHours       float64 `json:"assigned_hours"`
	FreeHours           float64 `json:"free_hours"`
	UtilizationPercent  int     `json:"utilization_percent"`
	BalanceScore        float64 `json:"balance_score"`
	Overloaded          int     `json:"overloaded"`
}

// Window is the resolved reporting range [From, To)
type Window struct {
	From     string `json:"from"`
	To       string `json:"to"`
	WorkDays int    `json:"workDays"`
}

// CapacityResponse is the data structure for the capacity endpoints
type CapacityResponse struct {
	Window    Window           `json:"window"`
	Resources []CapacityReport `json:"resources"`
	Summary   TeamSummary      `json:"summary"`
}

// CapacityInput is the data structure for the stateless capacity endpoint
type CapacityInput struct {
	From      *string    `json:"from"`
	To        *string    `json:"to"`
	Resources []Resource `json:"resources"`
}

// ScheduledItem is a dated item that may follow another item's schedule
type ScheduledItem struct {
	ID          string    `json:"id"`
	Title       string    `json:"title,omitempty"`
	DueDate     time.Time `json:"due_date"`
	DependsOnID *string   `json:"depends_on_id,omitempty"`
}

// DateShift is one due-date change produced by a cascade
type DateShift struct {
	ItemID     string    `json:"item_id"`
	OldDueDate time.Time `json:"old_due_date"`
	NewDueDate time.Time `json:"new_due_date"`
}

// CascadeInput is the data structure for the stateless cascade endpoint
type CascadeInput struct {
	RootID     string          `json:"root_id" binding:"required"`
	DaysDelta  *int            `json:"days_delta"`
	NewDueDate *string         `json:"new_due_date"`
	Items      []ScheduledItem `json:"items"`
}

// CascadeResponse is the data structure for the cascade result
type CascadeResponse struct {
	RootID    string      `json:"root_id"`
	DaysDelta int         `json:"days_delta"`
	Shifts    []DateShift `json:"shifts"`
}

// DateLayout is the calendar date format used on the wire
const DateLayout = "2006-01-02"

// Assignment places one unassigned work item on a resource
type Assignment struct {
	ItemID     string  `json:"item_id"`
	ResourceID string  `json:"resource_id"`
	Hours      float64 `json:"hours"`
}

// Conflict explains why an item could not be placed
type Conflict struct {
	ItemID  string   `json:"item_id"`
	Reasons []string `json:"reasons"`
}

// Suggestion is the outcome of balancing unassigned items over a team
type Suggestion struct {
	Assignments []Assignment `json:"assignments"`
	Conflicts   []Conflict   `json:"conflicts"`
}

// SuggestInput is the data structure for the stateless suggestion endpoint
type SuggestInput struct {
	From      *string    `json:"from"`
	To        *string    `json:"to"`
	Resources []Resource `json:"resources"`
	Items     []WorkItem `json:"items"`
}

// SuggestResponse is the data structure for the suggestion result
type SuggestResponse struct {
	Window Window `json:"window"`
	Suggestion
	// BalanceScore is the team balance once the suggestion is applied
	BalanceScore float64 `json:"balance_score"`
}
