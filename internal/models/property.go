package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PropertyType classifies a listing.
type PropertyType string

const (
	PropertyTypeHouse      PropertyType = "House"
	PropertyTypeApartment  PropertyType = "Apartment"
	PropertyTypeCondo      PropertyType = "Condo"
	PropertyTypeTownhouse  PropertyType = "Townhouse"
	PropertyTypeLand       PropertyType = "Land"
	PropertyTypeCommercial PropertyType = "Commercial"
)

// PropertyStatus is the market state of a listing.
type PropertyStatus string

const (
	PropertyStatusForSale PropertyStatus = "ForSale"
	PropertyStatusForRent PropertyStatus = "ForRent"
	PropertyStatusSold    PropertyStatus = "Sold"
	PropertyStatusRented  PropertyStatus = "Rented"
)

// PropertyLocation is the city a listing belongs to.
type PropertyLocation string

const (
	LocationKyiv    PropertyLocation = "Kyiv"
	LocationLviv    PropertyLocation = "Lviv"
	LocationOdesa   PropertyLocation = "Odesa"
	LocationKharkiv PropertyLocation = "Kharkiv"
	LocationDnipro  PropertyLocation = "Dnipro"
	LocationOther   PropertyLocation = "Other"
)

var (
	propertyTypes = map[PropertyType]struct{}{
		PropertyTypeHouse: {}, PropertyTypeApartment: {}, PropertyTypeCondo: {},
		PropertyTypeTownhouse: {}, PropertyTypeLand: {}, PropertyTypeCommercial: {},
	}
	propertyStatuses = map[PropertyStatus]struct{}{
		PropertyStatusForSale: {}, PropertyStatusForRent: {}, PropertyStatusSold: {}, PropertyStatusRented: {},
	}
	propertyLocations = map[PropertyLocation]struct{}{
		LocationKyiv: {}, LocationLviv: {}, LocationOdesa: {}, LocationKharkiv: {}, LocationDnipro: {}, LocationOther: {},
	}
)

// Valid reports whether t is a known property type.
func (t PropertyType) Valid() bool { _, ok := propertyTypes[t]; return ok }

// Valid reports whether s is a known property status.
func (s PropertyStatus) Valid() bool { _, ok := propertyStatuses[s]; return ok }

// Valid reports whether l is a known location.
func (l PropertyLocation) Valid() bool { _, ok := propertyLocations[l]; return ok }

// Property is a listing owned by exactly one user.
type Property struct {
	ID          uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	Title       string                      `gorm:"size:200;not null" json:"title"`
	Description string                      `gorm:"type:text" json:"description"`
	Price       float64                     `gorm:"not null;index" json:"price"`
	Bedrooms    int                         `gorm:"not null" json:"bedrooms"`
	Bathrooms   int                         `gorm:"not null" json:"bathrooms"`
	Area        float64                     `gorm:"not null" json:"area"`
	Address     string                      `gorm:"size:300;not null" json:"address"`
	Type        PropertyType                `gorm:"type:varchar(20);not null;index" json:"type"`
	Status      PropertyStatus              `gorm:"type:varchar(20);not null;index" json:"status"`
	Location    PropertyLocation            `gorm:"type:varchar(20);not null;index" json:"location"`
	Features    datatypes.JSONSlice[string] `json:"features"`
	UserID      uuid.UUID                   `gorm:"type:uuid;not null;index" json:"userId"`
	CreatedAt   time.Time                   `json:"createdAt"`
	UpdatedAt   time.Time                   `json:"updatedAt"`

	// Relationships
	User   *User           `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"owner,omitempty"`
	Images []PropertyImage `gorm:"foreignKey:PropertyID;constraint:OnDelete:CASCADE" json:"images"`

	// Computed
	FavoritesCount int64 `gorm:"-" json:"favoritesCount,omitempty"`
}

// TableName specifies the table name for GORM
func (Property) TableName() string {
	return "properties"
}

// BeforeCreate assigns an identifier.
func (p *Property) BeforeCreate(_ *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// PropertyImage is an opaque image URL attached to a property.
type PropertyImage struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	PropertyID   uuid.UUID `gorm:"type:uuid;not null;index:idx_property_images_order" json:"propertyId"`
	URL          string    `gorm:"size:1000;not null" json:"url"`
	DisplayOrder int       `gorm:"not null;index:idx_property_images_order" json:"displayOrder"`
	CreatedAt    time.Time `json:"createdAt"`
}

// TableName specifies the table name for GORM
func (PropertyImage) TableName() string {
	return "property_images"
}

// BeforeCreate assigns an identifier.
func (i *PropertyImage) BeforeCreate(_ *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// PropertyFilter narrows property listings. Zero values mean "no constraint".
type PropertyFilter struct {
	Type        PropertyType
	Status      PropertyStatus
	Location    PropertyLocation
	MinPrice    float64
	MaxPrice    float64
	MinBedrooms int
	Search      string
	OwnerID     uuid.UUID
	Limit       int
	Offset      int
}
