package repository

import (
	"context"

	"realestate/internal/models"
	"realestate/internal/observability"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InquiryRepository stores inquiries and answers the two visibility queries:
// what a user sent and what was sent about a user's listings.
type InquiryRepository interface {
	Create(ctx context.Context, inquiry *models.Inquiry) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Inquiry, error)
	SentBy(ctx context.Context, userID uuid.UUID) ([]models.Inquiry, error)
	ReceivedBy(ctx context.Context, ownerID uuid.UUID) ([]models.Inquiry, error)
	List(ctx context.Context, limit, offset int) ([]models.Inquiry, int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type inquiryRepository struct {
	db *gorm.DB
}

// NewInquiryRepository returns an InquiryRepository backed by db.
func NewInquiryRepository(db *gorm.DB) InquiryRepository {
	return &inquiryRepository{db: db}
}

func withDetails(db *gorm.DB) *gorm.DB {
	return db.Preload("Property").Preload("User")
}

func resolveAll(inquiries []models.Inquiry) []models.Inquiry {
	for i := range inquiries {
		inquiries[i].ResolveContact()
	}
	return inquiries
}

func (r *inquiryRepository) Create(ctx context.Context, inquiry *models.Inquiry) error {
	err := r.db.WithContext(ctx).Omit("User", "Property").Create(inquiry).Error
	return translateError(err, "Inquiry", inquiry.ID, "Inquiry already exists")
}

func (r *inquiryRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Inquiry, error) {
	var inquiry models.Inquiry
	if err := withDetails(r.db.WithContext(ctx)).First(&inquiry, "id = ?", id).Error; err != nil {
		return nil, translateError(err, "Inquiry", id, "")
	}
	inquiry.ResolveContact()
	return &inquiry, nil
}

func (r *inquiryRepository) SentBy(ctx context.Context, userID uuid.UUID) (_ []models.Inquiry, err error) {
	ctx, span := observability.StartRepository(ctx, "inquiries", "SentBy")
	defer func() { observability.EndSpan(span, err) }()

	var inquiries []models.Inquiry
	err = withDetails(r.db.WithContext(ctx)).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&inquiries).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return resolveAll(inquiries), nil
}

// ReceivedBy returns inquiries on any property owned by ownerID, including
// anonymous ones and ones the owner sent themselves.
func (r *inquiryRepository) ReceivedBy(ctx context.Context, ownerID uuid.UUID) (_ []models.Inquiry, err error) {
	ctx, span := observability.StartRepository(ctx, "inquiries", "ReceivedBy")
	defer func() { observability.EndSpan(span, err) }()

	var inquiries []models.Inquiry
	err = withDetails(r.db.WithContext(ctx)).
		Joins("JOIN properties ON properties.id = inquiries.property_id").
		Where("properties.user_id = ?", ownerID).
		Order("inquiries.created_at DESC").
		Find(&inquiries).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return resolveAll(inquiries), nil
}

func (r *inquiryRepository) List(ctx context.Context, limit, offset int) ([]models.Inquiry, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Inquiry{}).Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	// A non-positive limit returns every row.
	q := withDetails(r.db.WithContext(ctx)).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	var inquiries []models.Inquiry
	err := q.Find(&inquiries).Error
	if err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return resolveAll(inquiries), total, nil
}

func (r *inquiryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&models.Inquiry{}, "id = ?", id)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Inquiry", id)
	}
	return nil
}
