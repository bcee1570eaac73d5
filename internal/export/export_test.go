package export

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rows() []map[string]interface{} {
	return []map[string]interface{}{
		{
			"id":                      42.0,
			"prediction_started_at":   "2024-06-01T09:00:00Z",
			"prediction_completed_at": "2024-06-01T09:00:12.5Z",
			"owner_id":                "U123",
			"purchase_source":         "breeder",
			"has_purchase_experience": "no",
			"breed":                   "Shiba",
			"gender":                  "male",
			"current_weight":          3.0,
			"predicted_weight":        9.25,
			"satisfaction_rating":     "yes",
		},
		{
			"id":                    41.0,
			"prediction_started_at": "2024-05-31T23:30:00Z",
			"breed":                 "Poodle",
			"gender":                "female",
			"satisfaction_rating":   "no",
		},
		{"id": 40.0, "breed": "Mix"},
	}
}

func parse(t *testing.T, raw []byte) [][]string {
	t.Helper()
	records, err := csv.NewReader(bytes.NewReader(raw)).ReadAll()
	require.NoError(t, err)
	return records
}

func TestWriteCSVJapanese(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	var buf bytes.Buffer

	require.NoError(t, WriteCSV(&buf, rows(), Options{Japanese: true, Location: tokyo}))

	records := parse(t, buf.Bytes())
	require.Len(t, records, 4)
	header := records[0]
	assert.Equal(t, "予測開始時刻", header[1])
	assert.Equal(t, "犬種", header[7])

	first := records[1]
	assert.Equal(t, "42", first[0])
	assert.Equal(t, "2024-06-01 18:00:00", first[1])
	assert.Equal(t, "2024-06-01 18:00:12", first[2])
	assert.Equal(t, "ブリーダー", first[5])
	assert.Equal(t, "いいえ", first[6])
	assert.Equal(t, "オス", first[8])
	assert.Equal(t, "3", first[10])
	assert.Equal(t, "", first[11])
	assert.Equal(t, "9.25", first[14])
	assert.Equal(t, "はい", first[15])

	second := records[2]
	assert.Equal(t, "2024-06-01 08:30:00", second[1], "crosses midnight in JST")
	assert.Equal(t, "メス", second[8])
	assert.Equal(t, "いいえ", second[15])
}

func TestWriteCSVEnglish(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, rows(), Options{}))

	records := parse(t, buf.Bytes())
	assert.Equal(t, "Started at", records[0][1])
	assert.Equal(t, "2024-06-01 09:00:00", records[1][1])
	assert.Equal(t, "male", records[1][8])
	assert.Equal(t, "yes", records[1][15])
	assert.Len(t, Columns(), len(records[0]))
}

func TestSummarize(t *testing.T) {
	s := Summarize(rows())

	assert.Equal(t, Summary{Total: 3, Completed: 1, RatedYes: 1, RatedNo: 1}, s)
	assert.InDelta(t, 0.5, s.SatisfactionRate(), 1e-9)
	assert.Zero(t, Summary{}.SatisfactionRate())
}
