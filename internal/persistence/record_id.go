package persistence

import (
	"fmt"
	"strings"
)

type Tier string

const (
	TierREST   Tier = "rest"
	TierSQL    Tier = "sql"
	TierSheets Tier = "sheets"
	TierNotify Tier = "notify"
	TierLocal  Tier = "local"
)

// RecordID names a record at the tier that accepted it.
type RecordID struct {
	Tier Tier
	Key  string
}

func (id RecordID) String() string {
	if id.Tier == "" {
		return ""
	}
	return string(id.Tier) + ":" + id.Key
}

func (id RecordID) IsZero() bool {
	return id.Tier == "" && id.Key == ""
}

// ParseRecordID splits on the first colon, so local keys may themselves contain one.
func ParseRecordID(s string) (RecordID, error) {
	tier, key, ok := strings.Cut(s, ":")
	if !ok || key == "" {
		return RecordID{}, fmt.Errorf("record id %q: want <tier>:<key>", s)
	}
	switch t := Tier(tier); t {
	case TierREST, TierSQL, TierSheets, TierNotify, TierLocal:
		return RecordID{Tier: t, Key: key}, nil
	default:
		return RecordID{}, fmt.Errorf("record id %q: unknown tier %q", s, tier)
	}
}
