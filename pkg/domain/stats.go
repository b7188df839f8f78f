package domain

import "time"

// UserStats is the account-level usage summary.
type UserStats struct {
	UserID              string     `json:"user_id"`
	TotalFiles          int        `json:"total_files"`
	TotalCourses        int        `json:"total_courses"`
	TotalModelCalls     int        `json:"total_model_calls"`
	TotalTokensUsed     int64      `json:"total_tokens_used"`
	TotalProcessingTime float64    `json:"total_processing_time"`
	LastLoginAt         *time.Time `json:"last_login_at"`
	CreatedAt           *time.Time `json:"created_at"`
}

// ModelUsage is a per-model usage row. Aggregate columns arrive as strings
// from the service and are kept that way; the TUI formats them for display.
type ModelUsage struct {
	ModelName           string     `json:"model_name"`
	TotalCalls          int        `json:"total_calls"`
	TotalTokens         string     `json:"total_tokens"`
	TotalProcessingTime string     `json:"total_processing_time"`
	AvgProcessingTime   string     `json:"avg_processing_time"`
	SuccessRate         string     `json:"success_rate"`
	LastUsed            *time.Time `json:"last_used"`
}

// Activity is one entry in the recent-activity feed. Details is a free-form
// bag whose keys depend on ActionType (model, engine, title, count, ...).
type Activity struct {
	ID         string         `json:"id"`
	UserID     string         `json:"user_id"`
	ActionType string         `json:"action_type"`
	Details    map[string]any `json:"details"`
	CreatedAt  *time.Time     `json:"created_at"`
}
