package crm

import (
	storage "github.com/osr-alliance/backend-lib-crm"
	"github.com/osr-alliance/backend-lib-crm/model"
)

// ServiceName prefixes every cache key of this package's tables.
const ServiceName = "crm"

// define all the query names we will use
const (
	/*
		It's standard to have the query used to fetch by
		the primary key be called {tableName}GetByID
	*/
	LeadsGetByID  = "LeadsGetByID"
	LeadsGetAll   = "LeadsGetAll"
	LeadsByStatus = "LeadsByStatus"

	PartnersGetByID = "PartnersGetByID"
	PartnersGetAll  = "PartnersGetAll"

	ClientsGetByID = "ClientsGetByID"
	ClientsGetAll  = "ClientsGetAll"

	OfferingsGetByID = "OfferingsGetByID"
	OfferingsGetAll  = "OfferingsGetAll"

	UsersGetByID = "UsersGetByID"
	UsersGetAll  = "UsersGetAll"

	DailyActivitiesGetByID     = "DailyActivitiesGetByID"
	DailyActivitiesGetAll      = "DailyActivitiesGetAll"
	DailyActivitiesGetByUserID = "DailyActivitiesGetByUserID"

	LeadInteractionsGetByID     = "LeadInteractionsGetByID"
	LeadInteractionsGetAll      = "LeadInteractionsGetAll"
	LeadInteractionsGetByLeadID = "LeadInteractionsGetByLeadID"
)

// byID is the row query every table has: cached as a struct & kept fresh on insert and update
func byID(name, table string) *storage.Query {
	return &storage.Query{
		Name:     name,
		CacheKey: table + "|id=%v",
		Query:    "select * from " + table + " where id=:id",

		InsertAction: storage.CacheSet,
		UpdateAction: storage.CacheSet,
		SelectAction: storage.CacheSet,
		DeleteAction: storage.CacheDel,
	}
}

/*
newestFirst is a cached list of ids, read from the db in full on a miss. New rows are LPushX'd so the list
stays ordered by created_at desc, deleted rows are LRem'd and updates leave the list alone because they
don't change membership.
*/
func newestFirst(name, cacheKey, query, primary string) *storage.Query {
	return &storage.Query{
		Name:                    name,
		CacheKey:                cacheKey,
		CachePrimaryQueryStored: primary,
		Query:                   query + " order by created_at desc",

		InsertAction: storage.CacheLPush,
		UpdateAction: storage.CacheNoAction,
		SelectAction: storage.CacheRPush,
		DeleteAction: storage.CacheLRem,
	}
}

const leadsInsert = `INSERT INTO leads (id, name, company, email, phone, status, source, stage, next_action,
next_action_date, assigned_to, notes)
VALUES
(:id, :name, :company, :email, :phone, COALESCE(NULLIF(:status, ''), 'Live'), COALESCE(NULLIF(:source, ''), 'Other'),
COALESCE(NULLIF(:stage, ''), 'Initial'), :next_action, :next_action_date, :assigned_to, :notes) RETURNING *` // note: make sure it's RETURNING *

const leadsUpdate = `UPDATE leads SET name=:name, company=:company, email=:email, phone=:phone, status=:status,
source=:source, stage=:stage, next_action=:next_action, next_action_date=:next_action_date, assigned_to=:assigned_to,
notes=:notes, updated_at=now() WHERE id=:id RETURNING *`

const partnersInsert = `INSERT INTO partners (id, company, contact_person, email, phone, nature_of_contract,
bd_representative, category, status, engagement_letter_sent, acceptance_status, engagement_letter_reference,
agreement_date, address, commission_rate, business_remark, internal_remark, notes)
VALUES
(:id, :company, :contact_person, :email, :phone, :nature_of_contract, :bd_representative, :category, :status,
:engagement_letter_sent, :acceptance_status, :engagement_letter_reference, :agreement_date, :address,
:commission_rate, :business_remark, :internal_remark, :notes) RETURNING *`

const clientsInsert = `INSERT INTO clients (id, name, company, contact_person, email, phone, address, city, country,
bd_representative, industry, service_provided, engagement_details, status, start_date, end_date, contract_value,
remark, notes)
VALUES
(:id, :name, :company, :contact_person, :email, :phone, :address, :city, :country, :bd_representative, :industry,
:service_provided, :engagement_details, :status, :start_date, :end_date, :contract_value, :remark, :notes) RETURNING *`

const offeringsInsert = `INSERT INTO offerings (id, name, description, category, price, active)
VALUES
(:id, :name, :description, :category, :price, :active) RETURNING *`

const usersInsert = `INSERT INTO users (id, email, full_name, role)
VALUES
(:id, :email, :full_name, :role) RETURNING *`

const dailyActivitiesInsert = `INSERT INTO daily_activities (id, user_id, activity_date, calls, meetings, emails, notes)
VALUES
(:id, :user_id, :activity_date, :calls, :meetings, :emails, :notes) RETURNING *`

const leadInteractionsInsert = `INSERT INTO lead_interactions (id, lead_id, user_id, interaction_type, notes, interaction_date)
VALUES
(:id, :lead_id, :user_id, :interaction_type, :notes, :interaction_date) RETURNING *`

// Tables returns fresh table definitions for storage.New; storage parses them in place so they can't be shared.
func Tables() []*storage.Table {
	return []*storage.Table{
		{
			Struct:           model.Lead{},
			TableName:        "leads",
			PrimaryKeyField:  "id",
			PrimaryQueryName: LeadsGetByID,
			GenerateID:       true,
			InsertQuery:      leadsInsert,
			TouchField:       "updated_at",
			UpdateQuery:      leadsUpdate,
			Queries: []*storage.Query{
				byID(LeadsGetByID, "leads"),
				newestFirst(LeadsGetAll, "leads|all", "select * from leads", LeadsGetByID),
				{
					// uncached; used for reporting
					Name:     LeadsByStatus,
					CacheKey: "leads|status=%v",
					Query:    "select * from leads where status=:status order by created_at desc",
				},
			},
		},
		{
			Struct:           model.Partner{},
			TableName:        "partners",
			PrimaryKeyField:  "id",
			PrimaryQueryName: PartnersGetByID,
			GenerateID:       true,
			InsertQuery:      partnersInsert,
			TouchField:       "updated_at",
			Queries: []*storage.Query{
				byID(PartnersGetByID, "partners"),
				newestFirst(PartnersGetAll, "partners|all", "select * from partners", PartnersGetByID),
			},
		},
		{
			Struct:           model.Client{},
			TableName:        "clients",
			PrimaryKeyField:  "id",
			PrimaryQueryName: ClientsGetByID,
			GenerateID:       true,
			InsertQuery:      clientsInsert,
			TouchField:       "updated_at",
			Queries: []*storage.Query{
				byID(ClientsGetByID, "clients"),
				newestFirst(ClientsGetAll, "clients|all", "select * from clients", ClientsGetByID),
			},
		},
		{
			Struct:           model.Offering{},
			TableName:        "offerings",
			PrimaryKeyField:  "id",
			PrimaryQueryName: OfferingsGetByID,
			GenerateID:       true,
			InsertQuery:      offeringsInsert,
			Queries: []*storage.Query{
				byID(OfferingsGetByID, "offerings"),
				newestFirst(OfferingsGetAll, "offerings|all", "select * from offerings", OfferingsGetByID),
			},
		},
		{
			Struct:           model.User{},
			TableName:        "users",
			PrimaryKeyField:  "id",
			PrimaryQueryName: UsersGetByID,
			GenerateID:       true,
			InsertQuery:      usersInsert,
			Queries: []*storage.Query{
				byID(UsersGetByID, "users"),
				newestFirst(UsersGetAll, "users|all", "select * from users", UsersGetByID),
			},
		},
		{
			Struct:           model.DailyActivity{},
			TableName:        "daily_activities",
			PrimaryKeyField:  "id",
			PrimaryQueryName: DailyActivitiesGetByID,
			GenerateID:       true,
			InsertQuery:      dailyActivitiesInsert,
			Queries: []*storage.Query{
				byID(DailyActivitiesGetByID, "daily_activities"),
				newestFirst(DailyActivitiesGetAll, "daily_activities|all", "select * from daily_activities", DailyActivitiesGetByID),
				newestFirst(DailyActivitiesGetByUserID, "daily_activities|user_id=%v",
					"select * from daily_activities where user_id=:user_id", DailyActivitiesGetByID),
			},
		},
		{
			Struct:           model.LeadInteraction{},
			TableName:        "lead_interactions",
			PrimaryKeyField:  "id",
			PrimaryQueryName: LeadInteractionsGetByID,
			GenerateID:       true,
			InsertQuery:      leadInteractionsInsert,
			Queries: []*storage.Query{
				byID(LeadInteractionsGetByID, "lead_interactions"),
				newestFirst(LeadInteractionsGetAll, "lead_interactions|all", "select * from lead_interactions", LeadInteractionsGetByID),
				newestFirst(LeadInteractionsGetByLeadID, "lead_interactions|lead_id=%v",
					"select * from lead_interactions where lead_id=:lead_id", LeadInteractionsGetByID),
			},
		},
	}
}
