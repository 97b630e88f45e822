package entity

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// EntityRef identifies a ThingsBoard entity telemetry is fetched for.
type EntityRef struct {
	Type string `json:"type"`
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Point is a single telemetry sample as returned by the timeseries endpoint.
// TS is milliseconds since epoch; a negative TS marks a sample the server
// delivered without a timestamp, which downstream stages drop. Value is nil
// for null or non-numeric payloads.
type Point struct {
	TS    int64    `json:"ts"`
	Value *float64 `json:"value"`
}

// UnmarshalJSON decodes a point tolerantly. Even with useStrictDataTypes=true
// ThingsBoard delivers some keys as numeric strings or booleans, so numbers,
// quoted numbers and booleans all land as float64; anything else becomes nil.
func (p *Point) UnmarshalJSON(data []byte) error {
	var aux struct {
		TS    *int64          `json:"ts"`
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	if aux.TS != nil {
		p.TS = *aux.TS
	} else {
		p.TS = -1
	}

	p.Value = parsePointValue(aux.Value)
	return nil
}

func parsePointValue(raw json.RawMessage) *float64 {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return &f
		}
		return nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return nil
		}
		f := 0.0
		if b {
			f = 1.0
		}
		return &f
	default:
		var f float64
		if err := json.Unmarshal(raw, &f); err != nil {
			return nil
		}
		return &f
	}
}

// KeyedSeries maps a telemetry key to its ordered point list for one entity.
// A series may be assembled from several chunked responses.
type KeyedSeries map[string][]Point

// UnifiedRow carries every requested key present at one timestamp for one
// entity. Values holds nil for keys reported as null at that timestamp.
type UnifiedRow struct {
	TS     int64
	Entity string
	Values map[string]*float64
}
