// Package crm keeps in-memory, remote-synchronized lists of the CRM's records and moves leads,
// partners and clients in & out of spreadsheets.
package crm

import (
	"context"

	storage "github.com/osr-alliance/backend-lib-crm"
	"github.com/osr-alliance/backend-lib-crm/model"
)

// Stores holds one Store per entity, all backed by the same storage.
type Stores struct {
	Leads           *Store[model.Lead]
	Partners        *Store[model.Partner]
	Clients         *Store[model.Client]
	Offerings       *Store[model.Offering]
	Users           *Store[model.User]
	DailyActivities *Store[model.DailyActivity]

	storage storage.Storage
	opts    []Option
}

// NewStores wires a store per table registered by Tables.
func NewStores(s storage.Storage, opts ...Option) *Stores {
	return &Stores{
		Leads:           NewStore[model.Lead]("lead", NewTableRemote(s, LeadsGetAll, model.Lead{}), opts...),
		Partners:        NewStore[model.Partner]("partner", NewTableRemote(s, PartnersGetAll, model.Partner{}), opts...),
		Clients:         NewStore[model.Client]("client", NewTableRemote(s, ClientsGetAll, model.Client{}), opts...),
		Offerings:       NewStore[model.Offering]("offering", NewTableRemote(s, OfferingsGetAll, model.Offering{}), opts...),
		Users:           NewStore[model.User]("user", NewTableRemote(s, UsersGetAll, model.User{}), opts...),
		DailyActivities: NewStore[model.DailyActivity]("daily activity", NewTableRemote(s, DailyActivitiesGetAll, model.DailyActivity{}), opts...),

		storage: s,
		opts:    opts,
	}
}

// FetchAll fetches every store. Failures are logged per store.
func (s *Stores) FetchAll(ctx context.Context) {
	s.Leads.Fetch(ctx)
	s.Partners.Fetch(ctx)
	s.Clients.Fetch(ctx)
	s.Offerings.Fetch(ctx)
	s.Users.Fetch(ctx)
	s.DailyActivities.Fetch(ctx)
}

// Interactions returns a store of one lead's interactions. It starts empty; call Fetch.
func (s *Stores) Interactions(leadID string) *Store[model.LeadInteraction] {
	return NewStore[model.LeadInteraction]("interaction",
		NewTableRemote(s.storage, LeadInteractionsGetByLeadID, model.LeadInteraction{LeadID: leadID}), s.opts...)
}

// ActivitiesFor returns a store of one user's daily activities. It starts empty; call Fetch.
func (s *Stores) ActivitiesFor(userID string) *Store[model.DailyActivity] {
	return NewStore[model.DailyActivity]("daily activity",
		NewTableRemote(s.storage, DailyActivitiesGetByUserID, model.DailyActivity{UserID: userID}), s.opts...)
}

// LeadsWithStatus reads the leads with a status straight from the db, bypassing the stores.
func LeadsWithStatus(ctx context.Context, s storage.Storage, status string) ([]model.Lead, error) {
	leads := []model.Lead{}
	err := s.SelectAll(ctx, &model.Lead{Status: status}, &leads, LeadsByStatus, nil)
	return leads, err
}
