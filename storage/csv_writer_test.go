package storage

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stamps-catalog/models"
)

func TestCSVWriterWritesHeaderAndRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "audit.csv")

	w, err := NewCSVWriter(path)
	require.NoError(t, err)

	at := time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC)
	ok := &models.ImportResult{
		RequestID:  "req-1",
		URL:        "https://colnect.com/en/stamps/stamp/1",
		ParserName: "colnect",
		Raw: models.RawParsedData{
			CategoryName: "Fauna",
			ReleaseYear:  "1977",
			Price:        "2.50",
			Currency:     "EUR",
		},
		Info: models.ExtractedInfo{
			CategoryIDs:   []int{3, 8},
			ReleaseYear:   models.Some(1977),
			Perforated:    models.Some(true),
			MichelNumbers: []string{"10", "11"},
			Price:         models.Some(decimal.RequireFromString("2.50")),
			Currency:      models.Some(models.CurrencyEUR),
		},
		ImportedAt: at,
	}
	failed := &models.ImportResult{
		RequestID:  "req-1",
		URL:        "https://unknown.example/",
		Err:        "no parser matches url",
		ImportedAt: at,
	}

	require.NoError(t, w.WriteImport([]*models.ImportResult{ok, failed}))
	require.NoError(t, w.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, auditHeader, records[0])

	row := map[string]string{}
	for i, col := range auditHeader {
		row[col] = records[1][i]
	}
	assert.Equal(t, "colnect", row["parser"])
	assert.Equal(t, "Fauna", row["raw_category"])
	assert.Equal(t, "3 8", row["category_ids"])
	assert.Equal(t, "", row["country_ids"])
	assert.Equal(t, "1977", row["release_year"])
	assert.Equal(t, "", row["quantity"])
	assert.Equal(t, "true", row["perforated"])
	assert.Equal(t, "10 11", row["michel_numbers"])
	assert.Equal(t, "2.5", row["price"])
	assert.Equal(t, "EUR", row["currency"])
	assert.Equal(t, "2026-10-18T09:30:00Z", row["imported_at"])

	assert.Equal(t, "no parser matches url", records[2][len(auditHeader)-2])
}

func TestCSVWriterEmptyBatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.csv")

	w, err := NewCSVWriter(path)
	require.NoError(t, err)
	require.NoError(t, w.WriteImport(nil))
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "request_id,url,parser")
}
