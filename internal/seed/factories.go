// Package seed provides helpers to create test and demo data for the
// application database. These helpers are intended for development and
// testing only.
package seed

import (
	"fmt"
	"strings"
	"time"

	"realestate/internal/middleware"
	"realestate/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DemoPassword is the password of every generated account.
const DemoPassword = "Demo-password1!"

var (
	propertyTypes = []models.PropertyType{
		models.PropertyTypeHouse, models.PropertyTypeApartment, models.PropertyTypeCondo,
		models.PropertyTypeTownhouse, models.PropertyTypeLand, models.PropertyTypeCommercial,
	}
	propertyStatuses = []models.PropertyStatus{
		models.PropertyStatusForSale, models.PropertyStatusForRent,
		models.PropertyStatusSold, models.PropertyStatusRented,
	}
	locations = []models.PropertyLocation{
		models.LocationKyiv, models.LocationLviv, models.LocationOdesa,
		models.LocationKharkiv, models.LocationDnipro, models.LocationOther,
	}
	features = []string{
		"balcony", "parking", "garden", "elevator", "furnished", "pool",
		"air conditioning", "storage", "pet friendly", "sea view", "renovated",
	}
	questions = []string{
		"Is the property still available?",
		"Can I schedule a viewing this weekend?",
		"Is the price negotiable?",
		"Are utilities included in the rent?",
		"How far is the nearest metro station?",
	}
)

// Factory builds domain entities and persists them to the database.
// It is a thin helper used by Run and tests.
type Factory struct {
	db    *gorm.DB
	opts  Options
	faker *gofakeit.Faker
	hash  string
	// sequence keeps generated emails unique
	sequence int
}

// NewFactory creates a new Factory bound to the provided Gorm DB. A nil db is
// allowed in dry-run mode.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Factory{db: db, opts: opts, faker: gofakeit.New(seed)}
}

func (f *Factory) passwordHash() string {
	if f.hash != "" {
		return f.hash
	}
	if f.opts.SkipBcrypt {
		f.hash = DemoPassword
		return f.hash
	}
	hashed, _ := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.DefaultCost)
	f.hash = string(hashed)
	return f.hash
}

// createdAt spreads timestamps over the last MaxDays days.
func (f *Factory) createdAt() time.Time {
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	back := time.Duration(f.faker.Number(0, maxDays*24*60)) * time.Minute
	return time.Now().Add(-back)
}

func (f *Factory) phone() string {
	return fmt.Sprintf("+380%09d", f.faker.Number(0, 999999999))
}

// BuildUser constructs a user without persisting it.
func (f *Factory) BuildUser(overrides ...func(*models.User)) *models.User {
	f.sequence++
	first, last := f.faker.FirstName(), f.faker.LastName()
	user := &models.User{
		Name:     first + " " + last,
		Email:    fmt.Sprintf("%s.%s%d@example.com", strings.ToLower(first), strings.ToLower(last), f.sequence),
		Phone:    f.phone(),
		Password: f.passwordHash(),
		Role:     models.RoleUser,
	}
	user.CreatedAt = f.createdAt()
	for _, override := range overrides {
		override(user)
	}
	return user
}

// BuildProperty constructs a listing owned by owner.
func (f *Factory) BuildProperty(owner *models.User, overrides ...func(*models.Property)) *models.Property {
	propertyType := propertyTypes[f.faker.Number(0, len(propertyTypes)-1)]
	bedrooms := f.faker.Number(0, 6)
	if propertyType == models.PropertyTypeLand {
		bedrooms = 0
	}

	picked := make([]string, 0, 3)
	for _, feature := range features {
		if f.faker.Number(0, 3) == 0 {
			picked = append(picked, feature)
		}
	}

	property := &models.Property{
		Title:       fmt.Sprintf("%s %s in %s", capitalize(f.faker.Adjective()), propertyType, f.faker.City()),
		Description: f.faker.Paragraph(1, 3, 12, "\n"),
		Price:       float64(f.faker.Number(20, 900)) * 1000,
		Bedrooms:    bedrooms,
		Bathrooms:   f.faker.Number(1, 3),
		Area:        float64(f.faker.Number(25, 400)),
		Address:     f.faker.Street(),
		Type:        propertyType,
		Status:      propertyStatuses[f.faker.Number(0, len(propertyStatuses)-1)],
		Location:    locations[f.faker.Number(0, len(locations)-1)],
		Features:    picked,
		UserID:      owner.ID,
	}
	property.CreatedAt = f.createdAt()
	for _, override := range overrides {
		override(property)
	}
	return property
}

// BuildImages constructs count ordered image URLs for a listing.
func (f *Factory) BuildImages(property *models.Property, count int) []*models.PropertyImage {
	images := make([]*models.PropertyImage, 0, count)
	for i := 0; i < count; i++ {
		images = append(images, &models.PropertyImage{
			PropertyID:   property.ID,
			URL:          fmt.Sprintf("https://picsum.photos/seed/%s/1200/800", f.faker.UUID()),
			DisplayOrder: i + 1,
		})
	}
	return images
}

// BuildInquiry constructs an inquiry about property. A nil sender produces an
// anonymous inquiry, which always carries name, email and message.
func (f *Factory) BuildInquiry(property *models.Property, sender *models.User) *models.Inquiry {
	inquiry := &models.Inquiry{
		PropertyID: property.ID,
		Message:    questions[f.faker.Number(0, len(questions)-1)],
	}
	inquiry.CreatedAt = f.createdAt()
	if sender != nil {
		inquiry.UserID = &sender.ID
		return inquiry
	}
	inquiry.Name = f.faker.Name()
	inquiry.Email = fmt.Sprintf("visitor%d@example.net", f.faker.Number(1000, 999999))
	if f.faker.Bool() {
		inquiry.Phone = f.phone()
	}
	return inquiry
}

// persist writes rows in batches, or assigns identifiers in dry-run mode.
func persist[T any](f *Factory, kind string, rows []*T, assign func(*T)) error {
	if len(rows) == 0 {
		return nil
	}
	if f.opts.DryRun {
		for _, row := range rows {
			assign(row)
		}
		middleware.Logger.Info("[dry-run] skipped insert", "kind", kind, "count", len(rows))
		return nil
	}
	batch := f.opts.BatchSize
	if batch <= 0 {
		batch = 100
	}
	return f.db.CreateInBatches(rows, batch).Error
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
