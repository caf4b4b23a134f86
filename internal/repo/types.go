package repo

import "errors"

// ErrVersionConflict is returned when a vehicle update loses the optimistic
// version check, i.e. another request modified the document in between.
var ErrVersionConflict = errors.New("document version conflict")

// VehicleFilter carries the list-route filters. Zero values mean "not set";
// pointer fields distinguish 0 from absent.
type VehicleFilter struct {
	Category string
	Status   string
	Brand    string
	FuelType string
	MinPrice *float64
	MaxPrice *float64
	MinYear  *int
	MaxYear  *int
	Page     int
	Limit    int
	Sort     string
	// IncludeInactive lifts the default soft-delete filter (admin flows).
	IncludeInactive bool
}

type ContactFilter struct {
	Status   string
	Priority string
	Type     string
	Page     int
	Limit    int
	Sort     string
}

type UserFilter struct {
	Role     string
	IsActive *bool
	Page     int
	Limit    int
	Sort     string
}

type VehicleStats struct {
	TotalVehicles int64          `json:"totalVehicles"`
	TotalValue    float64        `json:"totalValue"`
	AvgPrice      float64        `json:"avgPrice"`
	MinPrice      float64        `json:"minPrice"`
	MaxPrice      float64        `json:"maxPrice"`
	ByCategory    map[string]int `json:"byCategory"`
	ByStatus      map[string]int `json:"byStatus"`
	ByFuelType    map[string]int `json:"byFuelType"`
	ByYear        map[string]int `json:"byYear"`
}

type ContactStats struct {
	Total      int64          `json:"total"`
	Unread     int64          `json:"unread"`
	ByStatus   map[string]int `json:"byStatus"`
	ByPriority map[string]int `json:"byPriority"`
	ByType     map[string]int `json:"byType"`
}

type UserStats struct {
	TotalUsers     int64          `json:"totalUsers"`
	ActiveUsers    int64          `json:"activeUsers"`
	VerifiedEmails int64          `json:"verifiedEmails"`
	ByRole         map[string]int `json:"byRole"`
}

func countOccurrences(values []string) map[string]int {
	out := make(map[string]int)
	for _, v := range values {
		if v != "" {
			out[v]++
		}
	}
	return out
}
