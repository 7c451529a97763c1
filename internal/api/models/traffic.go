package models

// Condition represents the most recent traffic condition for a location.
type Condition struct {
	Location        string          `json:"location"`
	Lat             float64         `json:"lat"`
	Lon             float64         `json:"lon"`
	CurrentSpeed    *float64        `json:"currentSpeed,omitempty"`
	FreeFlowSpeed   *float64        `json:"freeFlowSpeed,omitempty"`
	Density         float64         `json:"density"`
	CongestionLevel CongestionLevel `json:"congestionLevel"`
	RoadClosure     bool            `json:"roadClosure"`
	Timestamp       Timestamp       `json:"timestamp"`
}

// ConditionsResponse is the latest condition per monitored location.
type ConditionsResponse struct {
	Conditions map[string]Condition `json:"conditions"`
	Count      int                  `json:"count"`
}

// LocationHistory represents windowed aggregate statistics for a location.
type LocationHistory struct {
	Location          string          `json:"location"`
	AverageSpeed      float64         `json:"averageSpeed"`
	AverageTravelTime float64         `json:"averageTravelTime"`
	AverageDensity    float64         `json:"averageDensity"`
	CongestionLevel   CongestionLevel `json:"congestionLevel"`
	SampleCount       int             `json:"sampleCount"`
}

// HistoryResponse is the windowed aggregate view across locations.
type HistoryResponse struct {
	WindowHours int                        `json:"windowHours"`
	Locations   map[string]LocationHistory `json:"locations"`
}

// Sample represents a single stored traffic measurement.
type Sample struct {
	ID                 int64     `json:"id"`
	Location           string    `json:"location"`
	Lat                float64   `json:"lat"`
	Lon                float64   `json:"lon"`
	CurrentSpeed       *float64  `json:"currentSpeed,omitempty"`
	FreeFlowSpeed      *float64  `json:"freeFlowSpeed,omitempty"`
	CurrentTravelTime  *float64  `json:"currentTravelTime,omitempty"`
	FreeFlowTravelTime *float64  `json:"freeFlowTravelTime,omitempty"`
	Confidence         *float64  `json:"confidence,omitempty"`
	RoadClosure        bool      `json:"roadClosure"`
	Timestamp          Timestamp `json:"timestamp"`
}

// SamplesResponse is a list of stored traffic samples.
type SamplesResponse struct {
	Items []Sample `json:"items"`
	Count int      `json:"count"`
}

// SyncResponse reports the outcome of a mirror sync.
type SyncResponse struct {
	Entries   int       `json:"entries"`
	Published bool      `json:"published"`
	SyncedAt  Timestamp `json:"syncedAt"`
}
