package events

// MutableFieldsResponse exposes the gate so editors can disable inputs up front
type MutableFieldsResponse struct {
	EventID            string   `json:"eventId"`
	Status             Status   `json:"status"`
	MutableFields      []string `json:"mutableFields"`
	ImmutableFields    []string `json:"immutableFields"`
	AllowedTransitions []Status `json:"allowedTransitions"`
}
