package model

// APIResponse is the uniform envelope every endpoint answers with.
// Errors carry Success=false plus a non-nil Errors slice.
type APIResponse struct {
	StatusCode int      `json:"statusCode"`
	Data       any      `json:"data,omitempty"`
	Message    string   `json:"message"`
	Success    bool     `json:"success"`
	Errors     []string `json:"errors,omitzero"`
}
