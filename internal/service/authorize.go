// Package service holds the business rules between HTTP handlers and
// repositories. Every call takes the acting principal explicitly.
package service

import (
	"realestate/internal/access"
	"realestate/internal/observability"
)

// authorize runs the resolver and converts a denial into an error, counting it.
func authorize(actor access.Actor, action access.Action, resource access.Resource) error {
	d := access.Authorize(actor, action, resource)
	if d.Allowed {
		return nil
	}
	observability.AuthorizationDenials.WithLabelValues(string(resource.Kind), d.Reason).Inc()
	return d.Error(actor)
}
