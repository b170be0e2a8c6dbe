// Package access decides who may act on properties, favorites, inquiries and
// user profiles. Every rule lives in Authorize; callers never compare roles.
package access

import (
	"realestate/internal/models"

	"github.com/google/uuid"
)

// Kind is the closed set of actor variants.
type Kind int

const (
	// KindAnonymous is a request without a session.
	KindAnonymous Kind = iota
	// KindUser is an authenticated account with the User role.
	KindUser
	// KindAdmin is an authenticated account with the Admin role.
	KindAdmin
)

func (k Kind) String() string {
	switch k {
	case KindUser:
		return "user"
	case KindAdmin:
		return "admin"
	default:
		return "anonymous"
	}
}

// Actor is the party making a request.
type Actor struct {
	kind Kind
	id   uuid.UUID
}

// Anonymous returns the actor for requests without a session.
func Anonymous() Actor { return Actor{kind: KindAnonymous} }

// User returns an authenticated non-admin actor.
func User(id uuid.UUID) Actor { return Actor{kind: KindUser, id: id} }

// Admin returns an authenticated admin actor.
func Admin(id uuid.UUID) Actor { return Actor{kind: KindAdmin, id: id} }

// ForRole builds an authenticated actor from a stored role. Unknown roles get the
// least privilege.
func ForRole(id uuid.UUID, role models.Role) Actor {
	if role == models.RoleAdmin {
		return Admin(id)
	}
	return User(id)
}

// Kind returns the actor variant.
func (a Actor) Kind() Kind { return a.kind }

// ID returns the user id, or uuid.Nil for anonymous actors.
func (a Actor) ID() uuid.UUID { return a.id }

// IsAnonymous reports whether the actor has no session.
func (a Actor) IsAnonymous() bool { return a.kind == KindAnonymous || a.id == uuid.Nil }

// IsAdmin reports whether the actor holds the Admin role.
func (a Actor) IsAdmin() bool { return a.kind == KindAdmin && a.id != uuid.Nil }

// Is reports whether the actor is the authenticated user id.
func (a Actor) Is(id uuid.UUID) bool {
	return !a.IsAnonymous() && id != uuid.Nil && a.id == id
}

// Role returns the stored role matching the actor, empty for anonymous.
func (a Actor) Role() models.Role {
	switch {
	case a.IsAdmin():
		return models.RoleAdmin
	case a.IsAnonymous():
		return ""
	default:
		return models.RoleUser
	}
}

// Action is an operation on a resource.
type Action string

const (
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// ResourceKind names the record type being acted on.
type ResourceKind string

const (
	ResourceProperty      ResourceKind = "property"
	ResourcePropertyImage ResourceKind = "property_image"
	ResourceFavorite      ResourceKind = "favorite"
	ResourceInquiry       ResourceKind = "inquiry"
	ResourceUser          ResourceKind = "user"
)

// Resource carries the ownership metadata a decision needs. Build it with the
// constructors below rather than by hand.
type Resource struct {
	Kind ResourceKind
	// OwnerID is the property owner for properties, images, favorites and
	// inquiries, and the user itself for user profiles.
	OwnerID uuid.UUID
	// SubjectID is the favorite's user or the inquiry's sender.
	SubjectID uuid.UUID
	// Exists marks that a favorite row for the pair is already stored.
	Exists bool
}

// Property describes a listing owned by ownerID. Use uuid.Nil for listings
// that are not stored yet and are being created by the actor.
func Property(ownerID uuid.UUID) Resource {
	return Resource{Kind: ResourceProperty, OwnerID: ownerID}
}

// PropertyImage describes an image of a listing owned by ownerID.
func PropertyImage(ownerID uuid.UUID) Resource {
	return Resource{Kind: ResourcePropertyImage, OwnerID: ownerID}
}

// Favorite describes the favorite of userID on a property owned by ownerID.
func Favorite(userID, ownerID uuid.UUID, exists bool) Resource {
	return Resource{Kind: ResourceFavorite, OwnerID: ownerID, SubjectID: userID, Exists: exists}
}

// Inquiry describes an inquiry from senderID (nil when anonymous) about a
// property owned by ownerID.
func Inquiry(senderID *uuid.UUID, ownerID uuid.UUID) Resource {
	r := Resource{Kind: ResourceInquiry, OwnerID: ownerID}
	if senderID != nil {
		r.SubjectID = *senderID
	}
	return r
}

// InquiryCatalog describes the full, unpartitioned inquiry set.
func InquiryCatalog() Resource {
	return Resource{Kind: ResourceInquiry}
}

// UserProfile describes the account userID.
func UserProfile(userID uuid.UUID) Resource {
	return Resource{Kind: ResourceUser, OwnerID: userID}
}

// Deny reasons.
const (
	ReasonNotOwner      = "not owner"
	ReasonAlreadyExists = "already exists"
	ReasonSelfReference = "self-reference forbidden"
	ReasonAuthRequired  = "authentication required"
	ReasonUnsupported   = "action not permitted"
)

// Decision is the outcome of Authorize. The zero value denies.
type Decision struct {
	Allowed bool
	Reason  string
}

var allow = Decision{Allowed: true}

func deny(reason string) Decision { return Decision{Reason: reason} }

// Authorize decides whether actor may perform action on resource. It has no
// side effects.
func Authorize(actor Actor, action Action, resource Resource) Decision {
	// Favoriting one's own listing is an identity rule and binds admins too.
	if resource.Kind == ResourceFavorite && action == ActionCreate &&
		resource.SubjectID != uuid.Nil && resource.SubjectID == resource.OwnerID {
		return deny(ReasonSelfReference)
	}

	if actor.IsAdmin() {
		// The override covers whose favorite it is, not the pair's uniqueness.
		if resource.Kind == ResourceFavorite && action == ActionCreate && resource.Exists {
			return deny(ReasonAlreadyExists)
		}
		return allow
	}

	if actor.IsAnonymous() {
		switch {
		case resource.Kind == ResourceInquiry && action == ActionCreate:
			return allow
		case (resource.Kind == ResourceProperty || resource.Kind == ResourcePropertyImage) && action == ActionRead:
			return allow
		}
		return deny(ReasonAuthRequired)
	}

	switch resource.Kind {
	case ResourceProperty, ResourcePropertyImage:
		if action == ActionRead {
			return allow
		}
		// A listing being created has no owner yet; the actor becomes it.
		if action == ActionCreate && resource.Kind == ResourceProperty && resource.OwnerID == uuid.Nil {
			return allow
		}
		if actor.Is(resource.OwnerID) {
			return allow
		}
		return deny(ReasonNotOwner)

	case ResourceFavorite:
		if !actor.Is(resource.SubjectID) {
			return deny(ReasonNotOwner)
		}
		if action == ActionCreate && resource.Exists {
			return deny(ReasonAlreadyExists)
		}
		switch action {
		case ActionCreate, ActionRead, ActionDelete:
			return allow
		}
		return deny(ReasonUnsupported)

	case ResourceInquiry:
		switch action {
		case ActionCreate:
			return allow
		case ActionRead, ActionDelete:
			if actor.Is(resource.SubjectID) || actor.Is(resource.OwnerID) {
				return allow
			}
			return deny(ReasonNotOwner)
		}
		return deny(ReasonUnsupported)

	case ResourceUser:
		if (action == ActionRead || action == ActionUpdate) && actor.Is(resource.OwnerID) {
			return allow
		}
		return deny(ReasonNotOwner)
	}

	return deny(ReasonUnsupported)
}

// Error converts a denial into the error taxonomy: anonymous actors get
// UNAUTHORIZED, self-reference and duplicates get CONFLICT, everything else
// FORBIDDEN. It returns nil for an allowed decision.
func (d Decision) Error(actor Actor) error {
	if d.Allowed {
		return nil
	}
	switch {
	case actor.IsAnonymous():
		return models.NewUnauthorizedError("Authentication required")
	case d.Reason == ReasonSelfReference:
		return models.NewConflictError("You cannot favorite your own property")
	case d.Reason == ReasonAlreadyExists:
		return models.NewConflictError("Property is already in favorites")
	default:
		return models.NewForbiddenError("Not allowed: " + d.Reason)
	}
}
