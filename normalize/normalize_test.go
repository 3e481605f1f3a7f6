package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osr-alliance/backend-lib-crm/model"
)

func TestLead_Aliases(t *testing.T) {
	l := Lead(Row{
		"id":            "abc",
		"Contact Name":  "  Jane Doe ",
		"ORGANIZATION":  "Initech",
		"E-Mail":        "jane@initech.com",
		"phone_number":  5550100,
		"Lead Source":   "Referral",
		"Owner":         "u-1",
		"Comments":      "call back",
		"Date Added":    "2024-03-01T10:00:00Z",
		"ignored extra": "x",
	})

	assert.Equal(t, "abc", l.ID)
	assert.Equal(t, "Jane Doe", l.Name)
	assert.Equal(t, "Initech", l.Company)
	assert.Equal(t, "jane@initech.com", l.Email)
	assert.Equal(t, "5550100", l.Phone)
	assert.Equal(t, model.LeadStatusLive, l.Status)
	assert.Equal(t, "Referral", l.Source)
	require.NotNil(t, l.AssignedTo)
	assert.Equal(t, "u-1", *l.AssignedTo)
	assert.Equal(t, "call back", l.Notes)
	assert.True(t, l.CreatedAt.Equal(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)))
}

// the headers of the sheets and the leads table the CRM was first run on
func TestLead_LegacyHeaders(t *testing.T) {
	l := Lead(Row{
		"Name":             "Ann",
		"Company Name":     "Acme",
		"Phone no":         "555",
		"BD Incharge":      "bob",
		"Next Action":      "send proposal",
		"Next Action Date": "2024-06-03",
	})

	assert.Equal(t, "Ann", l.Name)
	assert.Equal(t, "Acme", l.Company)
	assert.Equal(t, "555", l.Phone)
	require.NotNil(t, l.AssignedTo)
	assert.Equal(t, "bob", *l.AssignedTo)
	require.NotNil(t, l.NextAction)
	assert.Equal(t, "send proposal", *l.NextAction)
	require.NotNil(t, l.NextActionDate)
	assert.Equal(t, "2024-06-03", *l.NextActionDate)

	l = Lead(Row{
		"Company Name":      "Acme",
		"Phone mobile no":   "777",
		"BD representative": "amy",
		"last remarks":      "keen",
		"Status":            "Closed",
	})
	assert.Equal(t, "777", l.Phone)
	require.NotNil(t, l.AssignedTo)
	assert.Equal(t, "amy", *l.AssignedTo)
	assert.Equal(t, "keen", l.Notes)
	assert.Equal(t, model.LeadStatusClosed, l.Status)
}

func TestLead_EmptyRow(t *testing.T) {
	l := Lead(Row{})

	assert.Equal(t, model.Lead{
		Status: model.LeadStatusLive,
		Source: model.LeadSourceOther,
		Stage:  model.LeadStageInitial,
	}, l)
}

func TestLead_BlankStatusGetsDefault(t *testing.T) {
	assert.Equal(t, model.LeadStatusLive, Lead(Row{"status": "   "}).Status)

	l := Lead(Row{"Stage": "Negotiation"})
	assert.Equal(t, "Negotiation", l.Stage)
	assert.Equal(t, model.LeadStatusLive, l.Status, "stage is its own column")
}

func TestLead_AliasPriority(t *testing.T) {
	// "name" outranks "contact" & a blank value falls through to the next alias
	l := Lead(Row{"contact": "second", "name": "first"})
	assert.Equal(t, "first", l.Name)

	l = Lead(Row{"name": "", "contact": "fallback"})
	assert.Equal(t, "fallback", l.Name)
}

func TestPartner(t *testing.T) {
	p := Partner(Row{
		"Company Name":                   "Beta",
		"Contact Person":                 "Carl",
		"Nature Of Contract":             "Referral",
		"BD Representative":              "bob",
		"Contact Number":                 "555-0101",
		"Engagement letter Sent?":        "Yes",
		"Acceptance Status":              "Accepted",
		"Engagement Letter Reference no": "EL-42",
		"Business Remark":                "big pipeline",
		"Internal Remark":                "slow to pay",
		"Type":                           "reseller",
		"Commission %":                   "12.5%",
	})

	assert.Equal(t, "Beta", p.Company)
	assert.Equal(t, "Carl", p.ContactPerson)
	assert.Equal(t, "Referral", p.NatureOfContract)
	require.NotNil(t, p.BDRepresentative)
	assert.Equal(t, "bob", *p.BDRepresentative)
	assert.Equal(t, "555-0101", p.Phone)
	require.NotNil(t, p.EngagementLetterSent)
	assert.True(t, *p.EngagementLetterSent)
	assert.Equal(t, "Accepted", p.AcceptanceStatus)
	assert.Equal(t, "EL-42", p.EngagementLetterReference)
	assert.Equal(t, "big pipeline", p.BusinessRemark)
	assert.Equal(t, "slow to pay", p.InternalRemark)
	assert.Equal(t, "reseller", p.Category)
	require.NotNil(t, p.CommissionRate)
	assert.InDelta(t, 12.5, *p.CommissionRate, 0.0001)
	assert.Equal(t, "", p.Status, "partners have no default status")
}

func TestPartner_Flags(t *testing.T) {
	for in, want := range map[any]*bool{
		"No":    boolPtr(false),
		"y":     boolPtr(true),
		"TRUE":  boolPtr(true),
		0:       boolPtr(false),
		"maybe": nil,
		"":      nil,
	} {
		assert.Equal(t, want, Partner(Row{"Engagement letter Sent?": in}).EngagementLetterSent, "%v", in)
	}
}

func TestClient(t *testing.T) {
	c := Client(Row{
		"Name":               "Globex",
		"Company Name":       "Globex Corp",
		"Contact Person":     "Hank",
		"Mobile":             "555-0199",
		"Address":            "1 Main St",
		"BD Representative":  "amy",
		"City":               "Springfield",
		"Country":            "US",
		"Engagement Details": "retainer",
		"Sector":             "Energy",
		"Deal Value":         "$1,250,000.50",
		"Start Date":         "2024-01-15T00:00:00Z",
		"End Date":           "end of Q4",
		"status":             "churned",
		"created":            "not a date",
	})

	assert.Equal(t, "Globex", c.Name)
	assert.Equal(t, "Globex Corp", c.Company)
	assert.Equal(t, "Hank", c.ContactPerson)
	assert.Equal(t, "555-0199", c.Phone)
	assert.Equal(t, "1 Main St", c.Address)
	require.NotNil(t, c.BDRepresentative)
	assert.Equal(t, "amy", *c.BDRepresentative)
	assert.Equal(t, "Springfield", c.City)
	assert.Equal(t, "US", c.Country)
	assert.Equal(t, "retainer", c.EngagementDetails)
	assert.Equal(t, "Energy", c.Industry)
	assert.Equal(t, "churned", c.Status)
	require.NotNil(t, c.ContractValue)
	assert.InDelta(t, 1250000.50, *c.ContractValue, 0.001)
	require.NotNil(t, c.StartDate)
	assert.Equal(t, "2024-01-15", *c.StartDate)
	require.NotNil(t, c.EndDate)
	assert.Equal(t, "end of Q4", *c.EndDate, "text that isn't a date is kept")
	assert.True(t, c.CreatedAt.IsZero(), "an unreadable date is left to the database")
}

func TestClient_NoDefaultStatus(t *testing.T) {
	assert.Equal(t, "", Client(Row{"Name": "x"}).Status)
}

func TestOptFloat_Unreadable(t *testing.T) {
	c := Client(Row{"value": "lots"})
	assert.Nil(t, c.ContractValue)

	c = Client(Row{"value": 42})
	require.NotNil(t, c.ContractValue)
	assert.Equal(t, 42.0, *c.ContractValue)
}

func TestFold(t *testing.T) {
	assert.Equal(t, "emailaddress", fold(" E-mail_Address "))
	assert.Equal(t, "createdat", fold("created.at"))
	assert.Equal(t, "engagementlettersent", fold("Engagement letter Sent?"))
}

func TestExportHeadersRoundTrip(t *testing.T) {
	rate := 7.5
	sent := false
	bd, day := "bob", "2024-02-29"
	p := model.Partner{
		ID: "p1", Company: "C", ContactPerson: "N", Email: "e@x", Phone: "1", NatureOfContract: "Referral",
		BDRepresentative: &bd, Category: "agency", Status: "paused", EngagementLetterSent: &sent,
		AcceptanceStatus: "Pending", EngagementLetterReference: "EL-1", AgreementDate: &day, Address: "here",
		CommissionRate: &rate, BusinessRemark: "b", InternalRemark: "i", Notes: "n",
	}
	got := Partner(PartnerRow(p))
	assert.Equal(t, p, got)

	next := "call"
	l := model.Lead{
		ID: "l1", Name: "Ann", Company: "Acme", Email: "a@acme.io", Phone: "555", Status: model.LeadStatusLost,
		Source: "Website", Stage: "Proposal", NextAction: &next, NextActionDate: &day, AssignedTo: &bd, Notes: "n",
		CreatedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	assert.Equal(t, l, Lead(LeadRow(l)))

	c := model.Client{
		ID: "c1", Name: "G", Company: "Globex", ContactPerson: "Hank", Email: "h@g.io", Phone: "1", Address: "a",
		City: "x", Country: "y", BDRepresentative: &bd, Industry: "Energy", ServiceProvided: "audit",
		EngagementDetails: "retainer", Status: "active", StartDate: &day, ContractValue: &rate, Remark: "r", Notes: "n",
	}
	assert.Equal(t, c, Client(ClientRow(c)))

	assert.Len(t, LeadRow(model.Lead{}), len(LeadHeaders))
	assert.Len(t, PartnerRow(model.Partner{}), len(PartnerHeaders))
	assert.Len(t, ClientRow(model.Client{}), len(ClientHeaders))
	assert.Equal(t, "", LeadRow(model.Lead{})["Created At"])
}

func boolPtr(b bool) *bool { return &b }
