package server

import "github.com/wtthornton/LocalMCP/internal/enhance"

// EnhanceRequest is the payload for POST /api/enhance. Options absent from the body
// keep their defaults.
type EnhanceRequest struct {
	Prompt  string          `json:"prompt"`
	Context enhance.Hints   `json:"context"`
	Options enhance.Options `json:"options"`
}

// ErrorResponse is returned with every non-2xx status.
type ErrorResponse struct {
	Error    string   `json:"error"`
	Problems []string `json:"problems,omitempty"`
}

// HealthResponse is the response for GET /api/health.
type HealthResponse struct {
	Status       string   `json:"status"`
	Version      string   `json:"version"`
	Capabilities []string `json:"capabilities"`
}

// ClearResponse is the response for DELETE /api/cache.
type ClearResponse struct {
	Success bool `json:"success"`
	Removed int  `json:"removed,omitempty"`
}
