package normalize

import (
	"strconv"
	"time"

	"github.com/osr-alliance/backend-lib-crm/model"
)

// Column headers written on export. Each one is also an alias the importer understands so an export
// can be edited & imported back.
var (
	LeadHeaders = []string{"ID", "Name", "Company Name", "Email", "Phone no", "Status", "Source", "Stage",
		"Next Action", "Next Action Date", "BD Incharge", "Notes", "Created At", "Updated At"}
	PartnerHeaders = []string{"ID", "Company Name", "Contact Person", "Email", "Contact Number", "Nature Of Contract",
		"BD Representative", "Category", "Status", "Engagement letter Sent?", "Acceptance Status",
		"Engagement Letter Reference no", "Agreement Date", "Address", "Commission Rate", "Business Remark",
		"Internal Remark", "Notes", "Created At", "Updated At"}
	ClientHeaders = []string{"ID", "Name", "Company Name", "Contact Person", "Email", "Mobile", "Address", "City",
		"Country", "BD Representative", "Industry", "Service Provided", "Engagement Details", "Status", "Start Date",
		"End Date", "Contract Value", "Remark", "Notes", "Created At", "Updated At"}
)

func LeadRow(l model.Lead) Row {
	return Row{
		"ID":               l.ID,
		"Name":             l.Name,
		"Company Name":     l.Company,
		"Email":            l.Email,
		"Phone no":         l.Phone,
		"Status":           l.Status,
		"Source":           l.Source,
		"Stage":            l.Stage,
		"Next Action":      deref(l.NextAction),
		"Next Action Date": deref(l.NextActionDate),
		"BD Incharge":      deref(l.AssignedTo),
		"Notes":            l.Notes,
		"Created At":       stamp(l.CreatedAt),
		"Updated At":       stamp(l.UpdatedAt),
	}
}

func PartnerRow(p model.Partner) Row {
	return Row{
		"ID":                             p.ID,
		"Company Name":                   p.Company,
		"Contact Person":                 p.ContactPerson,
		"Email":                          p.Email,
		"Contact Number":                 p.Phone,
		"Nature Of Contract":             p.NatureOfContract,
		"BD Representative":              deref(p.BDRepresentative),
		"Category":                       p.Category,
		"Status":                         p.Status,
		"Engagement letter Sent?":        yesNo(p.EngagementLetterSent),
		"Acceptance Status":              p.AcceptanceStatus,
		"Engagement Letter Reference no": p.EngagementLetterReference,
		"Agreement Date":                 deref(p.AgreementDate),
		"Address":                        p.Address,
		"Commission Rate":                number(p.CommissionRate),
		"Business Remark":                p.BusinessRemark,
		"Internal Remark":                p.InternalRemark,
		"Notes":                          p.Notes,
		"Created At":                     stamp(p.CreatedAt),
		"Updated At":                     stamp(p.UpdatedAt),
	}
}

func ClientRow(c model.Client) Row {
	return Row{
		"ID":                 c.ID,
		"Name":               c.Name,
		"Company Name":       c.Company,
		"Contact Person":     c.ContactPerson,
		"Email":              c.Email,
		"Mobile":             c.Phone,
		"Address":            c.Address,
		"City":               c.City,
		"Country":            c.Country,
		"BD Representative":  deref(c.BDRepresentative),
		"Industry":           c.Industry,
		"Service Provided":   c.ServiceProvided,
		"Engagement Details": c.EngagementDetails,
		"Status":             c.Status,
		"Start Date":         deref(c.StartDate),
		"End Date":           deref(c.EndDate),
		"Contract Value":     number(c.ContractValue),
		"Remark":             c.Remark,
		"Notes":              c.Notes,
		"Created At":         stamp(c.CreatedAt),
		"Updated At":         stamp(c.UpdatedAt),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func yesNo(b *bool) string {
	switch {
	case b == nil:
		return ""
	case *b:
		return "Yes"
	}
	return "No"
}

func number(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}

func stamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
