// Package export turns prediction log rows into spreadsheet-friendly CSV.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"
)

type kind int

const (
	text kind = iota
	number
	timestamp
	yesNo
	sex
	source
)

type column struct {
	key     string
	label   string
	labelJA string
	kind    kind
}

var columns = []column{
	{"id", "ID", "ID", text},
	{"prediction_started_at", "Started at", "予測開始時刻", timestamp},
	{"prediction_completed_at", "Completed at", "予測完了時刻", timestamp},
	{"owner_id", "Owner ID", "ユーザーID", text},
	{"display_name", "Display name", "表示名", text},
	{"purchase_source", "Purchase source", "購入元", source},
	{"has_purchase_experience", "Raised a dog before", "購入経験", yesNo},
	{"breed", "Breed", "犬種", text},
	{"gender", "Sex", "性別", sex},
	{"birth_date", "Birth date", "生年月日", text},
	{"current_weight", "Current weight (kg)", "現在の体重(kg)", number},
	{"birth_weight", "Birth weight (kg)", "出生時体重(kg)", number},
	{"mother_adult_weight", "Mother adult weight (kg)", "母犬成犬時体重(kg)", number},
	{"father_adult_weight", "Father adult weight (kg)", "父犬成犬時体重(kg)", number},
	{"predicted_weight", "Predicted weight (kg)", "予測体重(kg)", number},
	{"satisfaction_rating", "Satisfaction", "満足度評価", yesNo},
	{"satisfaction_rated_at", "Rated at", "満足度評価時刻", timestamp},
}

var (
	yesNoJA  = map[string]string{"yes": "はい", "no": "いいえ"}
	sexJA    = map[string]string{"male": "オス", "female": "メス"}
	sourceJA = map[string]string{"petshop": "ペットショップ", "breeder": "ブリーダー", "other": "その他"}
)

// Columns lists the stored column names the export reads, in output order.
func Columns() []string {
	keys := make([]string, len(columns))
	for i, c := range columns {
		keys[i] = c.key
	}
	return keys
}

type Options struct {
	// Japanese switches headers and enumerated values to Japanese labels.
	Japanese bool
	// Location is applied to timestamps; nil keeps UTC.
	Location *time.Location
}

// WriteCSV writes a header and one line per row. Missing or null values are empty cells.
func WriteCSV(w io.Writer, rows []map[string]interface{}, opts Options) error {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}

	cw := csv.NewWriter(w)
	header := make([]string, len(columns))
	for i, c := range columns {
		header[i] = c.label
		if opts.Japanese {
			header[i] = c.labelJA
		}
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, row := range rows {
		line := make([]string, len(columns))
		for i, c := range columns {
			line[i] = c.format(row[c.key], opts.Japanese, loc)
		}
		if err := cw.Write(line); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func (c column) format(v interface{}, japanese bool, loc *time.Location) string {
	if v == nil {
		return ""
	}
	switch c.kind {
	case number:
		switch n := v.(type) {
		case float64:
			return strconv.FormatFloat(n, 'f', -1, 64)
		case string:
			return n
		}
	case timestamp:
		s, ok := v.(string)
		if !ok {
			break
		}
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return s
		}
		return t.In(loc).Format("2006-01-02 15:04:05")
	case yesNo:
		return translate(v, yesNoJA, japanese)
	case sex:
		return translate(v, sexJA, japanese)
	case source:
		return translate(v, sourceJA, japanese)
	}
	return fmt.Sprint(v)
}

func translate(v interface{}, labels map[string]string, japanese bool) string {
	s := fmt.Sprint(v)
	if !japanese {
		return s
	}
	if l, ok := labels[s]; ok {
		return l
	}
	return s
}

type Summary struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	RatedYes  int `json:"ratedYes"`
	RatedNo   int `json:"ratedNo"`
}

func Summarize(rows []map[string]interface{}) Summary {
	var s Summary
	for _, row := range rows {
		s.Total++
		if row["prediction_completed_at"] != nil {
			s.Completed++
		}
		switch row["satisfaction_rating"] {
		case "yes":
			s.RatedYes++
		case "no":
			s.RatedNo++
		}
	}
	return s
}

// SatisfactionRate is the share of "yes" among rated rows, or 0 with no ratings.
func (s Summary) SatisfactionRate() float64 {
	rated := s.RatedYes + s.RatedNo
	if rated == 0 {
		return 0
	}
	return float64(s.RatedYes) / float64(rated)
}
