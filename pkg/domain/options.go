package domain

// ModelOption describes a generation model offered by the service.
// The available-models response maps option IDs to these.
type ModelOption struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// EngineOption describes a PDF extraction engine offered by the service.
type EngineOption struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}
