// Package model holds the CRM records as they are stored in the remote tables.
//
// Every record is flat, identified by an opaque string id and stamped with created_at by the
// database; leads, partners and clients also carry updated_at. Optional columns are pointers so a
// NULL survives a round trip. Calendar dates are YYYY-MM-DD text.
package model

import "time"

// Defaults given to records that arrive without them. Partners and clients have no default status.
const (
	LeadStatusLive   = "Live"
	LeadStatusClosed = "Closed"
	LeadStatusLost   = "Lost"

	LeadSourceOther  = "Other"
	LeadStageInitial = "Initial"
)

// Lead is a prospect being worked by a BD representative (AssignedTo).
type Lead struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Company        string    `json:"company"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone"`
	Status         string    `json:"status"`
	Source         string    `json:"source"`
	Stage          string    `json:"stage"`
	NextAction     *string   `json:"next_action"`
	NextActionDate *string   `json:"next_action_date"` // YYYY-MM-DD
	AssignedTo     *string   `json:"assigned_to"`
	Notes          string    `json:"notes"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (l Lead) Key() string { return l.ID }

func (l Lead) SearchFields() []string { return []string{l.Name, l.Company, l.Email} }

func (l Lead) StatusValue() string { return l.Status }

func (l Lead) SourceValue() string { return l.Source }

type Partner struct {
	ID                        string    `json:"id"`
	Company                   string    `json:"company"`
	ContactPerson             string    `json:"contact_person"`
	Email                     string    `json:"email"`
	Phone                     string    `json:"phone"`
	NatureOfContract          string    `json:"nature_of_contract"`
	BDRepresentative          *string   `json:"bd_representative"`
	Category                  string    `json:"category"`
	Status                    string    `json:"status"`
	EngagementLetterSent      *bool     `json:"engagement_letter_sent"`
	AcceptanceStatus          string    `json:"acceptance_status"`
	EngagementLetterReference string    `json:"engagement_letter_reference"`
	AgreementDate             *string   `json:"agreement_date"` // YYYY-MM-DD
	Address                   string    `json:"address"`
	CommissionRate            *float64  `json:"commission_rate"`
	BusinessRemark            string    `json:"business_remark"`
	InternalRemark            string    `json:"internal_remark"`
	Notes                     string    `json:"notes"`
	CreatedAt                 time.Time `json:"created_at"`
	UpdatedAt                 time.Time `json:"updated_at"`
}

func (p Partner) Key() string { return p.ID }

func (p Partner) SearchFields() []string { return []string{p.ContactPerson, p.Company, p.Email} }

func (p Partner) StatusValue() string { return p.Status }

type Client struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Company           string    `json:"company"`
	ContactPerson     string    `json:"contact_person"`
	Email             string    `json:"email"`
	Phone             string    `json:"phone"`
	Address           string    `json:"address"`
	City              string    `json:"city"`
	Country           string    `json:"country"`
	BDRepresentative  *string   `json:"bd_representative"`
	Industry          string    `json:"industry"`
	ServiceProvided   string    `json:"service_provided"`
	EngagementDetails string    `json:"engagement_details"`
	Status            string    `json:"status"`
	StartDate         *string   `json:"start_date"` // YYYY-MM-DD
	EndDate           *string   `json:"end_date"`   // YYYY-MM-DD
	ContractValue     *float64  `json:"contract_value"`
	Remark            string    `json:"remark"`
	Notes             string    `json:"notes"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func (c Client) Key() string { return c.ID }

func (c Client) SearchFields() []string { return []string{c.Name, c.Company, c.Email} }

func (c Client) StatusValue() string { return c.Status }

// Offering is a product or service that can be pitched to leads.
type Offering struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Price       *float64  `json:"price"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}

func (o Offering) Key() string { return o.ID }

func (o Offering) SearchFields() []string { return []string{o.Name, o.Category, o.Description} }

type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

func (u User) Key() string { return u.ID }

func (u User) SearchFields() []string { return []string{u.FullName, u.Email} }

// DailyActivity is one user's tally for one day.
type DailyActivity struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	ActivityDate string    `json:"activity_date"` // YYYY-MM-DD
	Calls        int       `json:"calls"`
	Meetings     int       `json:"meetings"`
	Emails       int       `json:"emails"`
	Notes        string    `json:"notes"`
	CreatedAt    time.Time `json:"created_at"`
}

func (a DailyActivity) Key() string { return a.ID }

// LeadInteraction records a call, email or meeting with a lead.
type LeadInteraction struct {
	ID              string     `json:"id"`
	LeadID          string     `json:"lead_id"`
	UserID          *string    `json:"user_id"`
	InteractionType string     `json:"interaction_type"`
	Notes           string     `json:"notes"`
	InteractionDate *time.Time `json:"interaction_date"`
	CreatedAt       time.Time  `json:"created_at"`
}

func (i LeadInteraction) Key() string { return i.ID }
