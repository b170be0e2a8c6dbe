package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MaxInquiryMessageLength bounds the inquiry message body.
const MaxInquiryMessageLength = 2000

// Inquiry is a message about a property. UserID is nil for anonymous senders, in
// which case Name, Email and Message are always populated.
type Inquiry struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	PropertyID uuid.UUID  `gorm:"type:uuid;not null;index" json:"propertyId"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"userId,omitempty"`
	Name       string     `gorm:"size:100" json:"name,omitempty"`
	Email      string     `gorm:"size:254" json:"email,omitempty"`
	Phone      string     `gorm:"size:30" json:"phone,omitempty"`
	Message    string     `gorm:"size:2000;not null" json:"message"`
	CreatedAt  time.Time  `gorm:"index" json:"createdAt"`

	// Relationships
	Property *Property `gorm:"foreignKey:PropertyID;constraint:OnDelete:CASCADE" json:"property,omitempty"`
	User     *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for GORM
func (Inquiry) TableName() string {
	return "inquiries"
}

// BeforeCreate assigns an identifier.
func (i *Inquiry) BeforeCreate(_ *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// IsAnonymous reports whether the inquiry was sent without an account.
func (i *Inquiry) IsAnonymous() bool {
	return i.UserID == nil
}

// SentBy reports whether userID sent the inquiry.
func (i *Inquiry) SentBy(userID uuid.UUID) bool {
	return i.UserID != nil && *i.UserID == userID
}

// ResolveContact fills empty contact fields from the preloaded sender profile.
// It only touches the in-memory value.
func (i *Inquiry) ResolveContact() {
	if i.User == nil {
		return
	}
	if i.Name == "" {
		i.Name = i.User.Name
	}
	if i.Email == "" {
		i.Email = i.User.Email
	}
	if i.Phone == "" {
		i.Phone = i.User.Phone
	}
}

// InquiryPartition splits inquiries by their relation to one user.
type InquiryPartition struct {
	Sent     []Inquiry `json:"sent"`
	Received []Inquiry `json:"received"`
}
