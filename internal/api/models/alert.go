package models

// Alert represents a raised traffic alert.
type Alert struct {
	ID          int64         `json:"id"`
	Location    string        `json:"location"`
	Type        AlertType     `json:"type"`
	Severity    AlertSeverity `json:"severity"`
	Description string        `json:"description"`
	Timestamp   Timestamp     `json:"timestamp"`
}

// AlertsResponse is a list of traffic alerts.
type AlertsResponse struct {
	Items []Alert `json:"items"`
	Count int     `json:"count"`
}
