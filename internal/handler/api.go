package handler

import (
	"time"

	"github.com/babytracker/internal/auth"
	"github.com/babytracker/internal/resource"
	"github.com/babytracker/internal/service"
	"gorm.io/gorm"
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	services *service.Services
	root     *resource.Root
	tickets  *auth.Tickets
	loc      *time.Location
	now      func() time.Time
}

// NewAPI constructs a handler set with shared services. Naive timestamps in requests are read
// in loc.
func NewAPI(db *gorm.DB, tickets *auth.Tickets, loc *time.Location) *API {
	if loc == nil {
		loc = time.UTC
	}
	services := service.New(db)
	return &API{
		services: services,
		root:     resource.NewRoot(services),
		tickets:  tickets,
		loc:      loc,
		now:      time.Now,
	}
}

// Services exposes the services bound to the root connection.
func (a *API) Services() *service.Services {
	return a.services
}

// Tickets exposes the auth ticket issuer.
func (a *API) Tickets() *auth.Tickets {
	return a.tickets
}

// Location is where naive timestamps are read and times are shown.
func (a *API) Location() *time.Location {
	return a.loc
}
