package dto

import "time"

// CarrierIDsResponse lists every known carrier ID
type CarrierIDsResponse struct {
	IDs []int64 `json:"ids"`
}

// CarrierSummaryResponse is the (id, name) view used by country lookups
type CarrierSummaryResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// CountryCarriersResponse lists the active carriers of a country
type CountryCarriersResponse struct {
	Country  string                   `json:"country"`
	Carriers []CarrierSummaryResponse `json:"carriers"`
}

// CarrierResponse is the full carrier record
type CarrierResponse struct {
	ID                    int64   `json:"id"`
	Name                  string  `json:"name"`
	IsPickupPoints        bool    `json:"is_pickup_points"`
	HasCarrierDirectLabel bool    `json:"has_carrier_direct_label"`
	SeparateHouseNumber   bool    `json:"separate_house_number"`
	CustomsDeclarations   bool    `json:"customs_declarations"`
	RequiresEmail         bool    `json:"requires_email"`
	RequiresPhone         bool    `json:"requires_phone"`
	RequiresSize          bool    `json:"requires_size"`
	DisallowsCOD          bool    `json:"disallows_cod"`
	Country               string  `json:"country"`
	Currency              string  `json:"currency"`
	MaxWeight             float64 `json:"max_weight"`
	Deleted               bool    `json:"deleted"`
}

// SyncJobResponse describes one recorded synchronizer pass
type SyncJobResponse struct {
	ID          string     `json:"id"`
	RunID       string     `json:"run_id,omitempty"`
	Trigger     string     `json:"trigger"`
	Status      string     `json:"status"`
	Reason      string     `json:"reason,omitempty"`
	Message     string     `json:"message"`
	Error       string     `json:"error,omitempty"`
	FeedCount   int        `json:"feed_count"`
	Inserted    int        `json:"inserted"`
	Updated     int        `json:"updated"`
	Failed      int        `json:"failed"`
	FailedIDs   []int64    `json:"failed_ids,omitempty"`
	SoftDeleted int64      `json:"soft_deleted"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	DurationMS  int64      `json:"duration_ms"`
}
