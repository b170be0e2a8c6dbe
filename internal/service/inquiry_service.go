package service

import (
	"context"
	"strings"

	"realestate/internal/access"
	"realestate/internal/featureflags"
	"realestate/internal/middleware"
	"realestate/internal/models"
	"realestate/internal/notifications"
	"realestate/internal/observability"
	"realestate/internal/repository"
	"realestate/internal/validation"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// EventPublisher delivers realtime events to a user.
type EventPublisher interface {
	PublishEvent(ctx context.Context, userID uuid.UUID, eventType string, payload any) error
}

// InquiryService routes inquiries to listing owners and decides who sees them.
type InquiryService struct {
	inquiryRepo  repository.InquiryRepository
	propertyRepo repository.PropertyRepository
	publisher    EventPublisher
	flags        *featureflags.Manager
}

// SubmitInquiryInput is an inquiry as posted. UserID is honoured only when it
// matches the actor or the actor is an admin.
type SubmitInquiryInput struct {
	PropertyID uuid.UUID
	UserID     *uuid.UUID
	Name       string
	Email      string
	Phone      string
	Message    string
}

func NewInquiryService(
	inquiryRepo repository.InquiryRepository,
	propertyRepo repository.PropertyRepository,
	publisher EventPublisher,
	flags *featureflags.Manager,
) *InquiryService {
	return &InquiryService{
		inquiryRepo:  inquiryRepo,
		propertyRepo: propertyRepo,
		publisher:    publisher,
		flags:        flags,
	}
}

func (in *SubmitInquiryInput) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Phone = strings.TrimSpace(in.Phone)
}

// validate checks contact fields. Anonymous senders must identify themselves;
// signed-in senders may leave contact fields empty.
func (in SubmitInquiryInput) validate(anonymous bool) error {
	errs := validation.Errors{}
	if anonymous || in.Name != "" {
		errs.Check("name", validation.ValidateName(in.Name))
	}
	if anonymous || in.Email != "" {
		if in.Email == "" {
			errs.Add("email", "email is required")
		} else {
			errs.Check("email", validation.ValidateEmail(in.Email))
		}
	}
	errs.Check("phone", validation.ValidatePhone(in.Phone))
	errs.Check("message", validation.ValidateMessage(in.Message))
	if in.PropertyID == uuid.Nil {
		errs.Add("propertyId", "propertyId is required")
	}
	return errs.Err()
}

// Submit stores an inquiry about a listing and notifies its owner.
func (s *InquiryService) Submit(ctx context.Context, actor access.Actor, in SubmitInquiryInput) (inquiry *models.Inquiry, err error) {
	ctx, span := observability.StartService(ctx, "InquiryService", "Submit",
		attribute.String("inquiry.property_id", in.PropertyID.String()),
		attribute.String("actor.kind", actor.Kind().String()))
	defer func() { observability.EndSpan(span, err) }()

	var sender *uuid.UUID
	switch {
	case actor.IsAnonymous():
		if in.UserID != nil {
			return nil, models.NewUnauthorizedError("Authentication required to send as a user")
		}
	case in.UserID != nil && !actor.Is(*in.UserID):
		if !actor.IsAdmin() {
			return nil, models.NewForbiddenError("Cannot send an inquiry on behalf of another user")
		}
		sender = in.UserID
	default:
		id := actor.ID()
		sender = &id
	}

	in.normalize()
	if err := in.validate(sender == nil); err != nil {
		return nil, err
	}

	property, err := s.propertyRepo.GetByID(ctx, in.PropertyID)
	if err != nil {
		return nil, err
	}
	if err := authorize(actor, access.ActionCreate, access.Inquiry(sender, property.UserID)); err != nil {
		return nil, err
	}

	inquiry = &models.Inquiry{
		PropertyID: property.ID,
		UserID:     sender,
		Name:       in.Name,
		Email:      in.Email,
		Phone:      in.Phone,
		Message:    in.Message,
	}
	if err := s.inquiryRepo.Create(ctx, inquiry); err != nil {
		return nil, err
	}

	senderKind := "user"
	if sender == nil {
		senderKind = "anonymous"
	}
	observability.InquiriesSubmitted.WithLabelValues(senderKind).Inc()

	stored, err := s.inquiryRepo.GetByID(ctx, inquiry.ID)
	if err != nil {
		return nil, err
	}
	s.notifyOwner(ctx, property, stored)
	return stored, nil
}

// notifyOwner is best effort; a failed publish never fails the submission.
func (s *InquiryService) notifyOwner(ctx context.Context, property *models.Property, inquiry *models.Inquiry) {
	if s.publisher == nil || inquiry.SentBy(property.UserID) {
		return
	}
	if !s.flags.Enabled(featureflags.InquiryNotifications, property.UserID) {
		return
	}

	event := notifications.InquiryReceived{
		InquiryID:     inquiry.ID,
		PropertyID:    property.ID,
		PropertyTitle: property.Title,
		SenderName:    inquiry.Name,
		Anonymous:     inquiry.IsAnonymous(),
	}
	if err := s.publisher.PublishEvent(ctx, property.UserID, notifications.EventInquiryReceived, event); err != nil {
		observability.NotificationsPublished.WithLabelValues("failed").Inc()
		middleware.Logger.WarnContext(ctx, "inquiry notification failed",
			"inquiry_id", inquiry.ID, "owner_id", property.UserID, "error", err)
		return
	}
	observability.NotificationsPublished.WithLabelValues("published").Inc()
}

// ListForActor partitions the actor's inquiries into those they sent and those
// received on their listings. Both sides are loaded concurrently.
func (s *InquiryService) ListForActor(ctx context.Context, actor access.Actor) (_ *models.InquiryPartition, err error) {
	ctx, span := observability.StartService(ctx, "InquiryService", "ListForActor")
	defer func() { observability.EndSpan(span, err) }()

	if actor.IsAnonymous() {
		return nil, authorize(actor, access.ActionRead, access.InquiryCatalog())
	}

	var sent, received []models.Inquiry
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		sent, err = s.inquiryRepo.SentBy(gctx, actor.ID())
		return err
	})
	g.Go(func() error {
		var err error
		received, err = s.inquiryRepo.ReceivedBy(gctx, actor.ID())
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if sent == nil {
		sent = []models.Inquiry{}
	}
	if received == nil {
		received = []models.Inquiry{}
	}
	return &models.InquiryPartition{Sent: sent, Received: received}, nil
}

// ListAll is admin-only. A non-positive limit returns every inquiry.
func (s *InquiryService) ListAll(ctx context.Context, actor access.Actor, limit, offset int) ([]models.Inquiry, int64, error) {
	if err := authorize(actor, access.ActionRead, access.InquiryCatalog()); err != nil {
		return nil, 0, err
	}
	return s.inquiryRepo.List(ctx, limit, offset)
}

func (s *InquiryService) Get(ctx context.Context, actor access.Actor, id uuid.UUID) (*models.Inquiry, error) {
	return s.loadAuthorized(ctx, actor, access.ActionRead, id)
}

// Delete removes the inquiry for its sender, the listing owner or an admin.
func (s *InquiryService) Delete(ctx context.Context, actor access.Actor, id uuid.UUID) (err error) {
	ctx, span := observability.StartService(ctx, "InquiryService", "Delete",
		attribute.String("inquiry.id", id.String()))
	defer func() { observability.EndSpan(span, err) }()

	if _, err := s.loadAuthorized(ctx, actor, access.ActionDelete, id); err != nil {
		return err
	}
	return s.inquiryRepo.Delete(ctx, id)
}

// loadAuthorized refuses anonymous actors before touching storage.
func (s *InquiryService) loadAuthorized(ctx context.Context, actor access.Actor, action access.Action, id uuid.UUID) (*models.Inquiry, error) {
	if actor.IsAnonymous() {
		return nil, authorize(actor, action, access.InquiryCatalog())
	}

	inquiry, err := s.inquiryRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var ownerID uuid.UUID
	if inquiry.Property != nil {
		ownerID = inquiry.Property.UserID
	} else if ownerID, err = s.propertyRepo.OwnerOf(ctx, inquiry.PropertyID); err != nil {
		return nil, err
	}

	if err := authorize(actor, action, access.Inquiry(inquiry.UserID, ownerID)); err != nil {
		return nil, err
	}
	return inquiry, nil
}
