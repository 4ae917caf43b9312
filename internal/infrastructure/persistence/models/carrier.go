package models

import (
	"github.com/erp/carrier-sync/internal/domain/carrier"
)

// CarrierModel is the persistence model for the carrier catalog.
// The ID comes from the provider feed, so it is never generated locally.
type CarrierModel struct {
	ID                    int64   `gorm:"column:id;primaryKey;autoIncrement:false"`
	Name                  string  `gorm:"column:name;size:255;not null"`
	IsPickupPoints        bool    `gorm:"column:is_pickup_points;not null"`
	HasCarrierDirectLabel bool    `gorm:"column:has_carrier_direct_label;not null"`
	SeparateHouseNumber   bool    `gorm:"column:separate_house_number;not null"`
	CustomsDeclarations   bool    `gorm:"column:customs_declarations;not null"`
	RequiresEmail         bool    `gorm:"column:requires_email;not null"`
	RequiresPhone         bool    `gorm:"column:requires_phone;not null"`
	RequiresSize          bool    `gorm:"column:requires_size;not null"`
	DisallowsCOD          bool    `gorm:"column:disallows_cod;not null"`
	Country               string  `gorm:"column:country;size:255;not null;index:idx_carriers_country_deleted,priority:1"`
	Currency              string  `gorm:"column:currency;size:255;not null"`
	MaxWeight             float64 `gorm:"column:max_weight;not null"`
	Deleted               bool    `gorm:"column:deleted;not null;index:idx_carriers_country_deleted,priority:2"`
}

// TableName returns the table name for GORM
func (CarrierModel) TableName() string {
	return "carriers"
}

// ToDomain converts the persistence model to a domain carrier
func (m *CarrierModel) ToDomain() *carrier.Carrier {
	return &carrier.Carrier{
		ID:                    m.ID,
		Name:                  m.Name,
		IsPickupPoints:        m.IsPickupPoints,
		HasCarrierDirectLabel: m.HasCarrierDirectLabel,
		SeparateHouseNumber:   m.SeparateHouseNumber,
		CustomsDeclarations:   m.CustomsDeclarations,
		RequiresEmail:         m.RequiresEmail,
		RequiresPhone:         m.RequiresPhone,
		RequiresSize:          m.RequiresSize,
		DisallowsCOD:          m.DisallowsCOD,
		Country:               m.Country,
		Currency:              m.Currency,
		MaxWeight:             m.MaxWeight,
		Deleted:               m.Deleted,
	}
}

// FromDomain populates the model from a domain carrier
func (m *CarrierModel) FromDomain(c *carrier.Carrier) {
	m.ID = c.ID
	m.Name = c.Name
	m.IsPickupPoints = c.IsPickupPoints
	m.HasCarrierDirectLabel = c.HasCarrierDirectLabel
	m.SeparateHouseNumber = c.SeparateHouseNumber
	m.CustomsDeclarations = c.CustomsDeclarations
	m.RequiresEmail = c.RequiresEmail
	m.RequiresPhone = c.RequiresPhone
	m.RequiresSize = c.RequiresSize
	m.DisallowsCOD = c.DisallowsCOD
	m.Country = c.Country
	m.Currency = c.Currency
	m.MaxWeight = c.MaxWeight
	m.Deleted = c.Deleted
}

// CarrierModelFromDomain creates a new persistence model from a domain carrier
func CarrierModelFromDomain(c *carrier.Carrier) *CarrierModel {
	m := &CarrierModel{}
	m.FromDomain(c)
	return m
}

// UpdateColumns returns every non-key column so that updates also write zero values.
func (m *CarrierModel) UpdateColumns() map[string]any {
	return map[string]any{
		"name":                     m.Name,
		"is_pickup_points":         m.IsPickupPoints,
		"has_carrier_direct_label": m.HasCarrierDirectLabel,
		"separate_house_number":    m.SeparateHouseNumber,
		"customs_declarations":     m.CustomsDeclarations,
		"requires_email":           m.RequiresEmail,
		"requires_phone":           m.RequiresPhone,
		"requires_size":            m.RequiresSize,
		"disallows_cod":            m.DisallowsCOD,
		"country":                  m.Country,
		"currency":                 m.Currency,
		"max_weight":               m.MaxWeight,
		"deleted":                  m.Deleted,
	}
}
