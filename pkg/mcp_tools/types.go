package mcp_tools

// RecordMemoryInput is the input for record_memory.
type RecordMemoryInput struct {
	Type           string   `json:"type" description:"gotcha, error_pattern, dead_end, preference, decision, pattern, workflow_recipe, task_calibration, causal_dependency, work_unit_outcome, e2e_observation, requirement"`
	Content        string   `json:"content"`
	ProjectID      string   `json:"project_id"`
	Scope          string   `json:"scope,omitempty" description:"global or module, defaults to module"`
	Confidence     float64  `json:"confidence,omitempty" description:"0-1, defaults to 0.5"`
	RelatedFiles   []string `json:"related_files,omitempty"`
	RelatedModules []string `json:"related_modules,omitempty"`
	ContextPrefix  string   `json:"context_prefix,omitempty"`
}

// SearchMemoryInput is the input for search_memory.
type SearchMemoryInput struct {
	Query       string   `json:"query,omitempty" description:"natural-language, identifier, or structural query; omit for a pure structural listing"`
	ProjectID   string   `json:"project_id"`
	Types       []string `json:"types,omitempty"`
	Phase       string   `json:"phase,omitempty" description:"plan, implement, debug, or review"`
	RecentFiles []string `json:"recent_files,omitempty"`
	Limit       int      `json:"limit,omitempty"`
}

// InsertPreferenceInput is the input for record_preference.
type InsertPreferenceInput struct {
	Content   string   `json:"content"`
	ProjectID string   `json:"project_id"`
	Tags      []string `json:"tags,omitempty"`
}

// SearchWorkflowRecipeInput is the input for search_workflow_recipe.
type SearchWorkflowRecipeInput struct {
	ProjectID   string `json:"project_id"`
	Description string `json:"description"`
	Limit       int    `json:"limit,omitempty"`
}

// MemoryIDInput addresses a single memory row by id, shared by
// deprecate/verify/delete.
type MemoryIDInput struct {
	ID string `json:"id"`
}

// PinMemoryInput is the input for pin_memory.
type PinMemoryInput struct {
	ID     string `json:"id"`
	Pinned bool   `json:"pinned"`
}

// ToolCallInput mirrors model.ToolCall for the step-injection request.
type ToolCallInput struct {
	ToolName   string            `json:"tool_name"`
	Args       map[string]string `json:"args,omitempty"`
	StepNumber int               `json:"step_number,omitempty"`
}

// RequestStepInjectionInput is the input for request_step_injection.
type RequestStepInjectionInput struct {
	ProjectID         string          `json:"project_id"`
	StepNumber        int             `json:"step_number"`
	RecentToolCalls   []ToolCallInput `json:"recent_tool_calls,omitempty"`
	InjectedMemoryIDs []string        `json:"injected_memory_ids,omitempty" description:"memory ids already surfaced this session, to avoid repeating an injection"`
}

// IndexProjectInput is the input for index_project.
type IndexProjectInput struct {
	ProjectPath string `json:"project_path"`
	ProjectName string `json:"project_name,omitempty"`
}

// IndexStatusInput is the input for index_status.
type IndexStatusInput struct {
	JobID string `json:"job_id,omitempty" description:"omit to list all active jobs"`
}

// ProjectIDInput addresses a single project by id; delete_project takes
// it.
type ProjectIDInput struct {
	ProjectID string `json:"project_id"`
}

// ReindexFileInput is the input for reindex_file.
type ReindexFileInput struct {
	ProjectID string `json:"project_id"`
	FilePath  string `json:"file_path" description:"path relative to the project root"`
}

// WatchProjectInput is the input for activate_project_watch /
// deactivate_project_watch / get_watch_status.
type WatchProjectInput struct {
	ProjectID string `json:"project_id,omitempty" description:"omit to target the watched project (deactivate_project_watch) or list every project (get_watch_status)"`
}

const errParseArgs = "failed to parse arguments: %w"
