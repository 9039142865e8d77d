package importer

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BlackBlossom/kmj-billing-system-sub001/pkg/billing"
)

func writeDump(t *testing.T, dir, name string, records any) {
	t.Helper()
	data, err := json.Marshal(records)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o644))
}

func TestScanOnceImportsLegacyAliases(t *testing.T) {
	dir := t.TempDir()
	store := billing.NewMemStore()
	svc := billing.NewService(store, store)

	writeDump(t, dir, "dump1.json", []map[string]any{
		{
			"mahalId":       "1/74",
			"member_name":   "Abdul Rahman",
			"amount":        500,
			"category":      "Jamaath",
			"account_type":  "Donation",
			"paymentMethod": "Cash",
			"payment_date":  "2024-02-15",
		},
		{
			"Mahal_Id":      "2/8",
			"amount":        "1250",
			"category":      "Madrassa",
			"accountType":   "Monthly Fee",
			"paymentMethod": "UPI",
		},
	})
	// a single-object dump with one bad record
	writeDump(t, dir, "dump2.json", map[string]any{
		"mahal_ID":      "3/3",
		"amount":        -10,
		"category":      "Jamaath",
		"accountType":   "Donation",
		"paymentMethod": "Cash",
	})

	im := New(svc, dir, 2)
	res, err := im.ScanOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Imported)
	assert.Equal(t, 1, res.Failed)

	// imported bills received real receipt numbers
	bills, pg, err := svc.ListBills(context.Background(), billing.Filter{}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), pg.TotalBills)
	seen := map[int64]bool{}
	for _, b := range bills {
		assert.False(t, seen[b.ReceiptNo])
		seen[b.ReceiptNo] = true
		assert.NotEmpty(t, b.AmountInWords)
	}

	// one of the two got the normalized fiscal year from its payment date
	feb, _, err := svc.ListBills(context.Background(), billing.Filter{MemberID: "1/74"}, 1, 10)
	require.NoError(t, err)
	require.Len(t, feb, 1)
	assert.Equal(t, "2023-24", feb[0].FinancialYear)

	// processed files are moved out of the drop directory
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var loose []string
	for _, e := range entries {
		if !e.IsDir() {
			loose = append(loose, e.Name())
		}
	}
	assert.Empty(t, loose)
	_, err = os.Stat(filepath.Join(dir, "processed", "dump1.json"))
	assert.NoError(t, err)
}

func TestScanOnceEmptyDirectory(t *testing.T) {
	dir := t.TempDir()
	store := billing.NewMemStore()
	im := New(billing.NewService(store, store), dir, 1)
	res, err := im.ScanOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, res.Imported)
	assert.Zero(t, res.Failed)
}

func TestDecodeDumpShapes(t *testing.T) {
	arr, err := decodeDump([]byte(`[{"amount": 1}]`))
	require.NoError(t, err)
	assert.Len(t, arr, 1)

	one, err := decodeDump([]byte(`{"amount": 1}`))
	require.NoError(t, err)
	assert.Len(t, one, 1)

	_, err = decodeDump([]byte(`not json`))
	assert.Error(t, err)
}
