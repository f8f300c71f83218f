package model

import "time"

// Task represents one action item: a unit of work tracked through a workflow
// status and an independent approval flag.
type Task struct {
	ID             int64      `json:"id"`
	OrganizationID int64      `json:"organization_id"`
	LocationID     *int64     `json:"location_id,omitempty"`
	Title          string     `json:"title"`
	Description    string     `json:"description,omitempty"`
	Category       string     `json:"category"`
	Status         string     `json:"status"`
	IsApproved     bool       `json:"is_approved"`
	CreatedByAdmin bool       `json:"created_by_admin"`
	AgentType      string     `json:"agent_type,omitempty"`
	Metadata       *Metadata  `json:"metadata,omitempty"`
	DueDate        *time.Time `json:"due_date,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Task statuses. All four are reachable from any other status; archived is the
// soft-delete state and may only be restored to pending.
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusComplete   = "complete"
	StatusArchived   = "archived"
)

// ValidStatus reports whether s is one of the four task statuses.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusInProgress, StatusComplete, StatusArchived:
		return true
	}
	return false
}

// Task categories. ALLORO tasks are system-generated and read-only to
// non-admin staff; USER tasks are staff-assigned.
const (
	CategoryAlloro = "ALLORO"
	CategoryUser   = "USER"
)

// ValidCategory reports whether c is a known task category.
func ValidCategory(c string) bool {
	return c == CategoryAlloro || c == CategoryUser
}

// Agent types identify the originating process of a system task. Informational
// only; empty means none.
const (
	AgentGBPOptimization = "GBP_OPTIMIZATION"
	AgentOpportunity     = "OPPORTUNITY"
	AgentCROOptimizer    = "CRO_OPTIMIZER"
	AgentRanking         = "RANKING"
	AgentManual          = "MANUAL"
)

// ValidAgentType reports whether a is a known agent tag or empty.
func ValidAgentType(a string) bool {
	switch a {
	case "", AgentGBPOptimization, AgentOpportunity, AgentCROOptimizer, AgentRanking, AgentManual:
		return true
	}
	return false
}

// GroupedTasks is the category-partitioned shape returned by the client read
// path. Both slices are always non-nil.
type GroupedTasks struct {
	Alloro []Task `json:"ALLORO"`
	User   []Task `json:"USER"`
}

// DefaultPageSize is the page size applied when a filter gives no limit.
const DefaultPageSize = 50

// TaskFilter is a filter specification for listing tasks. All fields are
// optional and combined with AND semantics. The date range is inclusive on
// created_at.
type TaskFilter struct {
	OrganizationID *int64
	LocationID     *int64
	Category       string
	Status         string
	IsApproved     *bool
	AgentType      string
	DateFrom       *time.Time
	DateTo         *time.Time
	Limit          int
	Offset         int
}
