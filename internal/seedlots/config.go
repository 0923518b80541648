package seedlots

import "time"

// Config holds configuration for the lot seeding run.
type Config struct {
	BaseURL     string        // Base URL of the service
	NumLots     int           // Number of lot reports to generate
	Suppliers   int           // Number of demo suppliers to register
	Excursions  int           // Number of forced out-of-control lots
	Workers     int           // Number of concurrent workers
	Timeout     time.Duration // HTTP request timeout
	ProcessWait time.Duration // Wait before reading back results
	OutputFile  string        // Output file for generated lots
	LogFile     string        // Log file for run output
	Verbose     bool          // Enable verbose logging
}

// LotReport is the ingest payload for POST /lots.
type LotReport struct {
	ReportID       string  `json:"report_id"`
	SupplierID     string  `json:"supplier_id"`
	LotID          string  `json:"lot_id"`
	PartNumber     string  `json:"part_number"`
	InspectionDate string  `json:"inspection_date"`
	LotSize        int     `json:"lot_size"`
	DefectCount    int     `json:"defect_count"`
	Yield          float64 `json:"yield,omitempty"`
}

// Supplier is the registration payload for POST /suppliers.
type Supplier struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	Location    string `json:"location,omitempty"`
	HealthScore int    `json:"health_score"`
	CertStatus  string `json:"cert_status,omitempty"`
}

// ScorecardCard is one row of GET /scorecard.
type ScorecardCard struct {
	SupplierID   string  `json:"supplier_id"`
	Name         string  `json:"name"`
	HealthRating string  `json:"health_rating"`
	HasData      bool    `json:"has_data"`
	DPPM         float64 `json:"dppm"`
	DPPMRating   string  `json:"dppm_rating"`
}

// Alert is one entry of GET /alerts.
type Alert struct {
	ID         string `json:"id"`
	Kind       string `json:"kind"`
	Severity   string `json:"severity"`
	SupplierID string `json:"supplier_id"`
	LotID      string `json:"lot_id"`
	Message    string `json:"message"`
}

// AckResponse is the response from lot submission.
type AckResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

// Stats holds run statistics.
type Stats struct {
	SuppliersRegistered int
	LotsGenerated       int
	LotsSubmitted       int
	LotsSuccessful      int
	LotsDuplicate       int
	LotsFailed          int
	CardsRetrieved      int
	AlertsRetrieved     int
	StartTime           time.Time
	EndTime             time.Time
	Duration            time.Duration
}
