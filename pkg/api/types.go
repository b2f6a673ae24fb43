package api

// APIResponse is the envelope every endpoint replies with.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// AddDictionaryRequest is the body of POST /dictionaries.
type AddDictionaryRequest struct {
	Path string `json:"path"`
}

// ResizeCacheRequest is the body of POST /cache/resize.
type ResizeCacheRequest struct {
	CapacityBytes uint64 `json:"capacity_bytes"`
}

// ServerConfig holds configuration for the API server.
type ServerConfig struct {
	Bind    string
	Port    int
	APIKey  string
	DataDir string
}
