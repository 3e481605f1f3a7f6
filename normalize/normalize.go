// Package normalize maps loosely typed rows, as they come out of a spreadsheet or a foreign table,
// onto the CRM records. It is best-effort: a missing or unreadable column becomes the zero value (or
// the record's default) and nothing is ever rejected. Field-level validation belongs to
// whoever edits the record afterwards.
package normalize

import (
	"sort"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/osr-alliance/backend-lib-crm/model"
)

// Row is one untyped record keyed by column header.
type Row map[string]any

// IDKey is the column the importer tags every row with.
const IDKey = "id"

const dayLayout = "2006-01-02"

// Column aliases in priority order. Matching ignores case, spaces, underscores, hyphens, dots and
// question marks so "Engagement letter Sent?" finds engagement_letter_sent.
var (
	idAliases       = []string{"id", "uuid"}
	nameAliases     = []string{"name", "full name", "contact name", "contact", "lead name", "client name"}
	companyAliases  = []string{"company", "company name", "organization", "organisation", "business", "account"}
	emailAliases    = []string{"email", "e-mail", "email address", "email id", "mail"}
	phoneAliases    = []string{"phone", "phone no", "phone number", "phone mobile no", "mobile", "mobile no", "mobile number", "contact number", "contact no", "telephone", "tel"}
	statusAliases   = []string{"status", "lead status"}
	sourceAliases   = []string{"source", "lead source", "channel", "origin"}
	stageAliases    = []string{"stage", "lead stage", "pipeline stage"}
	nextActAliases  = []string{"next action", "next step", "next steps"}
	nextDateAliases = []string{"next action date", "next action on", "follow up date"}
	bdAliases       = []string{"bd incharge", "bd in charge", "bd representative", "bd rep", "assigned to", "assignee", "owner", "sales rep"}
	notesAliases    = []string{"notes", "note", "comments", "comment", "description"}
	leadNoteAliases = append([]string{"last remarks", "remarks"}, notesAliases...)
	createdAliases  = []string{"created at", "created", "date added", "created on", "date of lead acquisition"}
	updatedAliases  = []string{"updated at", "updated", "last updated", "modified"}

	contactAliases     = []string{"contact person", "contact name", "contact", "name", "partner name"}
	contractAliases    = []string{"nature of contract", "contract type", "contract"}
	categoryAliases    = []string{"category", "partner type", "type"}
	letterSentAliases  = []string{"engagement letter sent", "el sent", "letter sent"}
	acceptanceAliases  = []string{"acceptance status", "acceptance"}
	letterRefAliases   = []string{"engagement letter reference no", "engagement letter reference", "engagement letter ref", "el reference"}
	agreementAliases   = []string{"agreement date", "date of agreement"}
	addressAliases     = []string{"address", "office address"}
	commissionAliases  = []string{"commission rate", "commission", "commission %"}
	businessRmkAliases = []string{"business remark", "business remarks"}
	internalRmkAliases = []string{"internal remark", "internal remarks"}

	clientNameAliases    = []string{"name", "client name", "full name"}
	clientContactAliases = []string{"contact person", "contact name", "contact"}
	cityAliases          = []string{"city", "town"}
	countryAliases       = []string{"country"}
	industryAliases      = []string{"industry", "sector", "vertical"}
	serviceAliases       = []string{"service provided", "services provided", "service", "services"}
	engagementAliases    = []string{"engagement details", "engagement"}
	startAliases         = []string{"start date", "contract start", "engagement start"}
	endAliases           = []string{"end date", "contract end", "engagement end"}
	valueAliases         = []string{"contract value", "value", "deal value", "revenue"}
	remarkAliases        = []string{"remark", "remarks"}
)

// Lead maps a row onto a lead. A missing status, source or stage becomes model.LeadStatusLive,
// model.LeadSourceOther or model.LeadStageInitial.
func Lead(row Row) model.Lead {
	idx := index(row)
	return model.Lead{
		ID:             idx.str(idAliases),
		Name:           idx.str(nameAliases),
		Company:        idx.str(companyAliases),
		Email:          idx.str(emailAliases),
		Phone:          idx.str(phoneAliases),
		Status:         idx.strOr(statusAliases, model.LeadStatusLive),
		Source:         idx.strOr(sourceAliases, model.LeadSourceOther),
		Stage:          idx.strOr(stageAliases, model.LeadStageInitial),
		NextAction:     idx.optStr(nextActAliases),
		NextActionDate: idx.day(nextDateAliases),
		AssignedTo:     idx.optStr(bdAliases),
		Notes:          idx.str(leadNoteAliases),
		CreatedAt:      idx.timestamp(createdAliases),
		UpdatedAt:      idx.timestamp(updatedAliases),
	}
}

// Partner maps a row onto a partner. Partners have no default status.
func Partner(row Row) model.Partner {
	idx := index(row)
	return model.Partner{
		ID:                        idx.str(idAliases),
		Company:                   idx.str(companyAliases),
		ContactPerson:             idx.str(contactAliases),
		Email:                     idx.str(emailAliases),
		Phone:                     idx.str(phoneAliases),
		NatureOfContract:          idx.str(contractAliases),
		BDRepresentative:          idx.optStr(bdAliases),
		Category:                  idx.str(categoryAliases),
		Status:                    idx.str(statusAliases),
		EngagementLetterSent:      idx.optBool(letterSentAliases),
		AcceptanceStatus:          idx.str(acceptanceAliases),
		EngagementLetterReference: idx.str(letterRefAliases),
		AgreementDate:             idx.day(agreementAliases),
		Address:                   idx.str(addressAliases),
		CommissionRate:            idx.optFloat(commissionAliases),
		BusinessRemark:            idx.str(businessRmkAliases),
		InternalRemark:            idx.str(internalRmkAliases),
		Notes:                     idx.str(notesAliases),
		CreatedAt:                 idx.timestamp(createdAliases),
		UpdatedAt:                 idx.timestamp(updatedAliases),
	}
}

// Client maps a row onto a client. Clients have no default status.
func Client(row Row) model.Client {
	idx := index(row)
	return model.Client{
		ID:                idx.str(idAliases),
		Name:              idx.str(clientNameAliases),
		Company:           idx.str(companyAliases),
		ContactPerson:     idx.str(clientContactAliases),
		Email:             idx.str(emailAliases),
		Phone:             idx.str(phoneAliases),
		Address:           idx.str(addressAliases),
		City:              idx.str(cityAliases),
		Country:           idx.str(countryAliases),
		BDRepresentative:  idx.optStr(bdAliases),
		Industry:          idx.str(industryAliases),
		ServiceProvided:   idx.str(serviceAliases),
		EngagementDetails: idx.str(engagementAliases),
		Status:            idx.str(statusAliases),
		StartDate:         idx.day(startAliases),
		EndDate:           idx.day(endAliases),
		ContractValue:     idx.optFloat(valueAliases),
		Remark:            idx.str(remarkAliases),
		Notes:             idx.str(notesAliases),
		CreatedAt:         idx.timestamp(createdAliases),
		UpdatedAt:         idx.timestamp(updatedAliases),
	}
}

// fold reduces a header to the form aliases are compared in
func fold(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch r {
		case ' ', '_', '-', '.', '?', '\t':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

type columns map[string]any

// index folds the row's headers once. Headers are visited in sorted order and the first non-blank
// value wins a collision so the result doesn't depend on map iteration.
func index(row Row) columns {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	idx := make(columns, len(row))
	for _, k := range keys {
		f := fold(k)
		if prev, ok := idx[f]; ok && !blank(prev) {
			continue
		}
		idx[f] = row[k]
	}
	return idx
}

func blank(v any) bool {
	if v == nil {
		return true
	}
	s, err := cast.ToStringE(v)
	return err == nil && strings.TrimSpace(s) == ""
}

// lookup returns the first non-blank value under any of the aliases
func (c columns) lookup(aliases []string) (any, bool) {
	for _, a := range aliases {
		v, ok := c[fold(a)]
		if ok && !blank(v) {
			return v, true
		}
	}
	return nil, false
}

func (c columns) str(aliases []string) string {
	return c.strOr(aliases, "")
}

func (c columns) strOr(aliases []string, def string) string {
	v, ok := c.lookup(aliases)
	if !ok {
		return def
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return def
	}
	return strings.TrimSpace(s)
}

func (c columns) optStr(aliases []string) *string {
	s := c.str(aliases)
	if s == "" {
		return nil
	}
	return &s
}

func (c columns) optFloat(aliases []string) *float64 {
	v, ok := c.lookup(aliases)
	if !ok {
		return nil
	}
	if s, isStr := v.(string); isStr {
		v = strings.TrimSpace(strings.NewReplacer(",", "", "$", "", "%", "").Replace(s))
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return nil
	}
	return &f
}

// optBool reads yes/no style flags; anything unreadable is nil
func (c columns) optBool(aliases []string) *bool {
	v, ok := c.lookup(aliases)
	if !ok {
		return nil
	}
	if s, isStr := v.(string); isStr {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "yes", "y":
			v = true
		case "no", "n":
			v = false
		}
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return nil
	}
	return &b
}

// day reads a calendar date as YYYY-MM-DD. Text that isn't a recognisable date is kept as written.
func (c columns) day(aliases []string) *string {
	v, ok := c.lookup(aliases)
	if !ok {
		return nil
	}

	var s string
	switch t := v.(type) {
	case time.Time:
		s = t.Format(dayLayout)
	case string:
		s = strings.TrimSpace(t)
		if parsed, err := cast.ToTimeE(s); err == nil {
			s = parsed.Format(dayLayout)
		}
	default:
		str, err := cast.ToStringE(v)
		if err != nil {
			return nil
		}
		s = str
	}
	return &s
}

// timestamp reads a time; the zero time lets the database stamp the row
func (c columns) timestamp(aliases []string) time.Time {
	v, ok := c.lookup(aliases)
	if !ok {
		return time.Time{}
	}
	t, err := cast.ToTimeE(v)
	if err != nil {
		return time.Time{}
	}
	return t
}
