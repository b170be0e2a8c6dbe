package seed

import (
	"context"
	"errors"
	"fmt"

	"realestate/internal/middleware"
	"realestate/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	Users                int
	Properties           int
	ImagesPerProperty    int
	FavoritesPerUser     int
	InquiriesPerProperty int
	// AnonymousEvery makes every n-th inquiry anonymous; 0 disables them.
	AnonymousEvery int
	BatchSize      int
	MaxDays        int
	Seed           int64
	SkipBcrypt     bool
	DryRun         bool
	ShouldClean    bool
}

// DefaultOptions returns a small demo data set.
func DefaultOptions() Options {
	return Options{
		Users:                20,
		Properties:           40,
		ImagesPerProperty:    3,
		FavoritesPerUser:     4,
		InquiriesPerProperty: 2,
		AnonymousEvery:       3,
		BatchSize:            100,
		MaxDays:              90,
	}
}

// Summary counts what a run created.
type Summary struct {
	Users              int
	Properties         int
	Images             int
	Favorites          int
	Inquiries          int
	AnonymousInquiries int
}

func (s Summary) String() string {
	return fmt.Sprintf("%d users, %d properties, %d images, %d favorites, %d inquiries (%d anonymous)",
		s.Users, s.Properties, s.Images, s.Favorites, s.Inquiries, s.AnonymousInquiries)
}

// Run populates the database with generated users, listings, images,
// favorites and inquiries. Favorites never target the user's own listing and
// are unique per (user, property).
func Run(ctx context.Context, db *gorm.DB, opts Options) (*Summary, error) {
	if opts.Users < 1 {
		return nil, errors.New("seed: at least one user is required")
	}
	if db == nil && !opts.DryRun {
		return nil, errors.New("seed: database is required unless dry-run")
	}
	if db != nil {
		db = db.WithContext(ctx)
	}

	middleware.Logger.Info("starting database seeding",
		"users", opts.Users, "properties", opts.Properties, "dry_run", opts.DryRun)

	if opts.ShouldClean && !opts.DryRun {
		if err := Clean(ctx, db); err != nil {
			return nil, fmt.Errorf("clean: %w", err)
		}
	}

	f := NewFactory(db, opts)
	summary := &Summary{}

	users := make([]*models.User, 0, opts.Users)
	for i := 0; i < opts.Users; i++ {
		users = append(users, f.BuildUser())
	}
	if err := persist(f, "users", users, func(u *models.User) { u.ID = uuid.New() }); err != nil {
		return nil, fmt.Errorf("failed to create users: %w", err)
	}
	summary.Users = len(users)

	properties := make([]*models.Property, 0, opts.Properties)
	for i := 0; i < opts.Properties; i++ {
		owner := users[f.faker.Number(0, len(users)-1)]
		properties = append(properties, f.BuildProperty(owner))
	}
	if err := persist(f, "properties", properties, func(p *models.Property) { p.ID = uuid.New() }); err != nil {
		return nil, fmt.Errorf("failed to create properties: %w", err)
	}
	summary.Properties = len(properties)

	var images []*models.PropertyImage
	for _, p := range properties {
		images = append(images, f.BuildImages(p, opts.ImagesPerProperty)...)
	}
	if err := persist(f, "property_images", images, func(i *models.PropertyImage) { i.ID = uuid.New() }); err != nil {
		return nil, fmt.Errorf("failed to create images: %w", err)
	}
	summary.Images = len(images)

	favorites := buildFavorites(f, users, properties, opts.FavoritesPerUser)
	if err := persist(f, "favorites", favorites, func(fav *models.Favorite) { fav.ID = uuid.New() }); err != nil {
		return nil, fmt.Errorf("failed to create favorites: %w", err)
	}
	summary.Favorites = len(favorites)

	inquiries := buildInquiries(f, users, properties, opts)
	if err := persist(f, "inquiries", inquiries, func(q *models.Inquiry) { q.ID = uuid.New() }); err != nil {
		return nil, fmt.Errorf("failed to create inquiries: %w", err)
	}
	summary.Inquiries = len(inquiries)
	for _, q := range inquiries {
		if q.IsAnonymous() {
			summary.AnonymousInquiries++
		}
	}

	middleware.Logger.Info("database seeding completed", "summary", summary.String())
	return summary, nil
}

func buildFavorites(f *Factory, users []*models.User, properties []*models.Property, perUser int) []*models.Favorite {
	var favorites []*models.Favorite
	if perUser <= 0 || len(properties) == 0 {
		return favorites
	}
	for _, u := range users {
		order := f.faker.Rand.Perm(len(properties))
		added := 0
		for _, idx := range order {
			if added == perUser {
				break
			}
			p := properties[idx]
			if p.UserID == u.ID {
				continue
			}
			favorites = append(favorites, &models.Favorite{UserID: u.ID, PropertyID: p.ID})
			added++
		}
	}
	return favorites
}

func buildInquiries(f *Factory, users []*models.User, properties []*models.Property, opts Options) []*models.Inquiry {
	var inquiries []*models.Inquiry
	n := 0
	for _, p := range properties {
		for i := 0; i < opts.InquiriesPerProperty; i++ {
			n++
			var sender *models.User
			if opts.AnonymousEvery <= 0 || n%opts.AnonymousEvery != 0 {
				sender = pickSender(f, users, p.UserID)
			}
			inquiries = append(inquiries, f.BuildInquiry(p, sender))
		}
	}
	return inquiries
}

// pickSender chooses a registered user other than the owner, falling back to
// an anonymous inquiry when the owner is the only user.
func pickSender(f *Factory, users []*models.User, owner uuid.UUID) *models.User {
	if len(users) < 2 {
		return nil
	}
	for {
		u := users[f.faker.Number(0, len(users)-1)]
		if u.ID != owner {
			return u
		}
	}
}

// Clean removes all marketplace rows, children first.
func Clean(ctx context.Context, db *gorm.DB) error {
	middleware.Logger.Info("clearing existing data")
	tx := db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true})
	for _, model := range []any{
		&models.Inquiry{}, &models.Favorite{}, &models.PropertyImage{}, &models.Property{}, &models.User{},
	} {
		if err := tx.Delete(model).Error; err != nil {
			return err
		}
	}
	return nil
}
