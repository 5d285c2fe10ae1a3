package api

// TextIn is the request body of encode and decode.
type TextIn struct {
	Text    string            `json:"text"`
	Mapping map[string]string `json:"mapping,omitempty"`
}

// TextOut is the response body of encode and decode.
type TextOut struct {
	Text    string            `json:"text"`
	Mapping map[string]string `json:"mapping"`
}

// Health reports API liveness.
type Health struct {
	OK bool `json:"ok"`
}

// ErrorResponse is the JSON body of every non-2xx API response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// EncodeStats summarizes one encode call for metrics and logging.
type EncodeStats struct {
	Created int
	Total   int
}
