package crm

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/osr-alliance/backend-lib-crm/importer"
	"github.com/osr-alliance/backend-lib-crm/model"
	"github.com/osr-alliance/backend-lib-crm/normalize"
)

func workbook(t *testing.T, rows [][]interface{}) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		row := row
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	buf := &bytes.Buffer{}
	_, err := f.WriteTo(buf)
	require.NoError(t, err)
	return buf
}

func TestImportLeads(t *testing.T) {
	remote := &fakeRemote{rows: []model.Lead{{ID: "old"}}}
	st, rec, _ := newLeadStore(t, remote)
	st.Fetch(context.Background())

	file := workbook(t, [][]interface{}{
		{"Full Name", "Company Name", "E-mail", "Lead Status"},
		{"Ann", "Acme", "ann@acme.io", ""},
		{"Bob", "Globex", "bob@globex.com", "Qualified"},
	})

	res, err := ImportLeads(context.Background(), st, file)
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.Len(t, res.Rows, 2)

	items := st.Items()
	require.Len(t, items, 3)
	assert.Equal(t, "Bob", items[0].Name)
	assert.Equal(t, "Qualified", items[0].Status)
	assert.Equal(t, "Ann", items[1].Name)
	assert.Equal(t, model.LeadStatusLive, items[1].Status)
	assert.Equal(t, "Acme", items[1].Company)
	assert.Equal(t, "ann@acme.io", items[1].Email)
	assert.NotEmpty(t, items[0].ID)
	assert.NotEqual(t, items[0].ID, items[1].ID)
	assert.Equal(t, "old", items[2].ID)

	assert.Equal(t, "2 leads imported successfully", rec.last().Message)
}

func TestImportLeads_LegacySheet(t *testing.T) {
	remote := &fakeRemote{}
	st, _, _ := newLeadStore(t, remote)

	file := workbook(t, [][]interface{}{
		{"Status", "Name", "Company Name", "Phone mobile no", "Email", "BD representative", "Next action Date", "last remarks"},
		{"", "Ann", "Acme", "555-0100", "ann@acme.io", "bob", "2024-07-01", "wants a demo"},
	})

	res, err := ImportLeads(context.Background(), st, file)
	require.NoError(t, err)
	require.True(t, res.Success)

	got := st.Items()[0]
	assert.Equal(t, model.LeadStatusLive, got.Status)
	assert.Equal(t, "Acme", got.Company)
	assert.Equal(t, "555-0100", got.Phone)
	require.NotNil(t, got.AssignedTo)
	assert.Equal(t, "bob", *got.AssignedTo)
	require.NotNil(t, got.NextActionDate)
	assert.Equal(t, "2024-07-01", *got.NextActionDate)
	assert.Equal(t, "wants a demo", got.Notes)
}

func TestImportLeads_EmptyFile(t *testing.T) {
	remote := &fakeRemote{}
	st, _, _ := newLeadStore(t, remote)

	res, err := ImportLeads(context.Background(), st, workbook(t, [][]interface{}{{"Name", "Email"}}))
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, []string{importer.EmptyFile}, res.Errors)
	assert.Empty(t, remote.calls, "nothing reaches the remote")
}

func TestImportPartners_RemoteFailure(t *testing.T) {
	st := NewStore[model.Partner]("partner", &failingPartners{err: errors.New("tx aborted")}, WithNotifier(&recorder{}))

	res, err := ImportPartners(context.Background(), st, workbook(t, [][]interface{}{
		{"Name", "Commission"},
		{"P1", "12.5%"},
	}))
	require.Error(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Errors[0], "tx aborted")
	assert.Zero(t, st.Len())
}

type failingPartners struct{ err error }

func (f *failingPartners) List(context.Context) ([]model.Partner, error) { return nil, f.err }
func (f *failingPartners) Insert(context.Context, model.Partner) (model.Partner, error) {
	return model.Partner{}, f.err
}
func (f *failingPartners) InsertMany(context.Context, []model.Partner) ([]model.Partner, error) {
	return nil, f.err
}
func (f *failingPartners) Update(context.Context, string, Patch) (model.Partner, error) {
	return model.Partner{}, f.err
}
func (f *failingPartners) Delete(context.Context, string) error { return f.err }

func TestExportThenImportClients(t *testing.T) {
	value := 1200.5
	clients := []model.Client{
		{ID: "c1", Name: "Initech", Company: "Initech LLC", Email: "ops@initech.com", Industry: "Software", Status: "active", ContractValue: &value},
	}

	buf := &bytes.Buffer{}
	require.NoError(t, ExportClients(buf, clients))

	res := importer.Read(buf)
	require.True(t, res.Success)
	require.Len(t, res.Rows, 1)

	got := normalize.Client(res.Rows[0])
	assert.NotEqual(t, "c1", got.ID, "exported ids are replaced on import")
	assert.Equal(t, "Initech", got.Name)
	assert.Equal(t, "Initech LLC", got.Company)
	assert.Equal(t, "Software", got.Industry)
	require.NotNil(t, got.ContractValue)
	assert.InDelta(t, 1200.5, *got.ContractValue, 0.001)
}

func TestExportThenImportPartners(t *testing.T) {
	sent := true
	partners := []model.Partner{
		{ID: "p1", Company: "Beta", ContactPerson: "Carl", NatureOfContract: "Referral", EngagementLetterSent: &sent, AcceptanceStatus: "Accepted"},
	}

	buf := &bytes.Buffer{}
	require.NoError(t, ExportPartners(buf, partners))

	res := importer.Read(buf)
	require.True(t, res.Success)
	require.Len(t, res.Rows, 1)

	got := normalize.Partner(res.Rows[0])
	assert.Equal(t, "Carl", got.ContactPerson)
	assert.Equal(t, "Beta", got.Company)
	assert.Equal(t, "Referral", got.NatureOfContract)
	require.NotNil(t, got.EngagementLetterSent)
	assert.True(t, *got.EngagementLetterSent)
	assert.Equal(t, "Accepted", got.AcceptanceStatus)
}
