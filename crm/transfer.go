package crm

import (
	"context"
	"io"

	"github.com/osr-alliance/backend-lib-crm/importer"
	"github.com/osr-alliance/backend-lib-crm/model"
	"github.com/osr-alliance/backend-lib-crm/normalize"
)

// ImportLeads reads a workbook, normalizes every row to a lead & adds them all to the store in one
// transaction. A workbook that can't be read is reported in the Result, not as an error.
func ImportLeads(ctx context.Context, st *Store[model.Lead], r io.Reader) (importer.Result, error) {
	return importInto(ctx, st, r, normalize.Lead)
}

func ImportPartners(ctx context.Context, st *Store[model.Partner], r io.Reader) (importer.Result, error) {
	return importInto(ctx, st, r, normalize.Partner)
}

func ImportClients(ctx context.Context, st *Store[model.Client], r io.Reader) (importer.Result, error) {
	return importInto(ctx, st, r, normalize.Client)
}

func importInto[T Entity](ctx context.Context, st *Store[T], r io.Reader, fn func(normalize.Row) T) (importer.Result, error) {
	res := importer.Read(r)
	if !res.Success {
		st.log.WithField("errors", res.Errors).Warn("import rejected")
		return res, nil
	}

	items := make([]T, 0, len(res.Rows))
	for _, row := range res.Rows {
		items = append(items, fn(row))
	}

	if _, err := st.AddMany(ctx, items); err != nil {
		res.Success = false
		res.Errors = append(res.Errors, err.Error())
		return res, err
	}
	return res, nil
}

func ExportLeads(w io.Writer, leads []model.Lead) error {
	return exportFrom(w, normalize.LeadHeaders, leads, normalize.LeadRow)
}

func ExportPartners(w io.Writer, partners []model.Partner) error {
	return exportFrom(w, normalize.PartnerHeaders, partners, normalize.PartnerRow)
}

func ExportClients(w io.Writer, clients []model.Client) error {
	return exportFrom(w, normalize.ClientHeaders, clients, normalize.ClientRow)
}

func exportFrom[T any](w io.Writer, headers []string, items []T, fn func(T) normalize.Row) error {
	rows := make([]normalize.Row, 0, len(items))
	for _, item := range items {
		rows = append(rows, fn(item))
	}
	return importer.Write(w, headers, rows)
}
