package models

// ── Dashboard Metrics ────────────────────────────────────────────

// DashboardMetrics holds the main dashboard statistics.
type DashboardMetrics struct {
	TotalVehicles     int `json:"totalVehicles"`
	ActiveVehicles    int `json:"activeVehicles"`
	ExpiringSoon      int `json:"expiringSoon"` // vehicles with any doc within 30 days
	ServicesOpen      int `json:"servicesOpen"` // pending + processing
	ServicesCompleted int `json:"servicesCompleted"`
	UnpaidChallans    int `json:"unpaidChallans"`
}

// ── Renewal Buckets ──────────────────────────────────────────────

// RenewalBuckets is the dashboard's cumulative window view. Counts
// overlap: a vehicle expiring in 5 days appears in all four.
type RenewalBuckets struct {
	Days30  BucketDetail `json:"days30"`
	Days90  BucketDetail `json:"days90"`
	Days180 BucketDetail `json:"days180"`
	Days365 BucketDetail `json:"days365"`
}

// BucketDetail carries a window's count and member vehicles.
type BucketDetail struct {
	Count    int             `json:"count"`
	Vehicles []BucketVehicle `json:"vehicles"`
}

// BucketVehicle is a slim row for the bucket drill-down.
type BucketVehicle struct {
	ID             string  `json:"id"`
	Registration   string  `json:"registration"`
	EarliestDoc    string  `json:"earliestDoc"`
	EarliestExpiry string  `json:"earliestExpiry"`
	DaysLeft       int     `json:"daysLeft"`
	DriverName     *string `json:"driverName,omitempty"`
}

// ── Expiry Alerts ────────────────────────────────────────────────

// ExpiryAlert represents a single document nearing or past expiry.
type ExpiryAlert struct {
	VehicleID    string `json:"vehicleId"`
	Registration string `json:"registration"`
	DocumentType string `json:"documentType"`
	DisplayName  string `json:"displayName"`
	Expiry       string `json:"expiry"` // raw producer string, unmodified
	DaysLeft     int    `json:"daysLeft"`
	Status       string `json:"status"` // expired | urgent | warning
}

// ── Service Stats ────────────────────────────────────────────────

// ServiceStats summarizes renewal-service throughput for the dashboard.
type ServiceStats struct {
	ByStatus          map[string]int `json:"byStatus"`
	AverageCompletion int            `json:"averageCompletion"` // mean of per-service completion
	DeliveredEarly    int            `json:"deliveredEarly"`
	DeliveredLate     int            `json:"deliveredLate"`
}
