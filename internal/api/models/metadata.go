package models

// Enums represents the enum values used by the API.
type Enums struct {
	CongestionLevels []CongestionLevel `json:"congestionLevels"`
	AlertTypes       []AlertType       `json:"alertTypes"`
	AlertSeverities  []AlertSeverity   `json:"alertSeverities"`
}
