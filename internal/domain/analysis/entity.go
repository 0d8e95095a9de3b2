package analysis

import (
	"encoding/json"
	"strings"
)

// Column names of the results table, in storage order.
const (
	ColFilename          = "filename"
	ColTimestamp         = "timestamp"
	ColSummary           = "summary"
	ColObjects           = "objects"
	ColPeopleCount       = "people_count"
	ColPeopleDescription = "people_description"
	ColColors            = "colors"
	ColMood              = "mood"
	ColEmotion           = "emotion"
	ColMovement          = "movement"
	ColSetting           = "setting"
	ColLighting          = "lighting"
	ColComposition       = "composition"
	ColElementsList      = "elements_list"
	ColFullDescription   = "full_description"
	ColCostEstimate      = "cost_estimate"
)

// Columns is the fixed header of the results table.
var Columns = []string{
	ColFilename,
	ColTimestamp,
	ColSummary,
	ColObjects,
	ColPeopleCount,
	ColPeopleDescription,
	ColColors,
	ColMood,
	ColEmotion,
	ColMovement,
	ColSetting,
	ColLighting,
	ColComposition,
	ColElementsList,
	ColFullDescription,
	ColCostEstimate,
}

// AnalyticalFields are the columns the vision model is asked to fill.
var AnalyticalFields = Columns[2:15]

// ParseErrorSummary marks a row whose model output was not valid JSON.
const ParseErrorSummary = "Error parsing response - see full_description"

// Record is one row of the results table. All values are strings so the
// table stays uniform regardless of what the model returned.
type Record struct {
	Filename          string `json:"filename"`
	Timestamp         string `json:"timestamp"`
	Summary           string `json:"summary"`
	Objects           string `json:"objects"`
	PeopleCount       string `json:"people_count"`
	PeopleDescription string `json:"people_description"`
	Colors            string `json:"colors"`
	Mood              string `json:"mood"`
	Emotion           string `json:"emotion"`
	Movement          string `json:"movement"`
	Setting           string `json:"setting"`
	Lighting          string `json:"lighting"`
	Composition       string `json:"composition"`
	ElementsList      string `json:"elements_list"`
	FullDescription   string `json:"full_description"`
	CostEstimate      string `json:"cost_estimate"`
}

// Values returns the record in Columns order.
func (r Record) Values() []string {
	return []string{
		r.Filename,
		r.Timestamp,
		r.Summary,
		r.Objects,
		r.PeopleCount,
		r.PeopleDescription,
		r.Colors,
		r.Mood,
		r.Emotion,
		r.Movement,
		r.Setting,
		r.Lighting,
		r.Composition,
		r.ElementsList,
		r.FullDescription,
		r.CostEstimate,
	}
}

// FromValues builds a record from a row in Columns order. Short rows are
// padded with empty strings, extra values are dropped.
func FromValues(vals []string) Record {
	get := func(i int) string {
		if i < len(vals) {
			return vals[i]
		}
		return ""
	}
	return Record{
		Filename:          get(0),
		Timestamp:         get(1),
		Summary:           get(2),
		Objects:           get(3),
		PeopleCount:       get(4),
		PeopleDescription: get(5),
		Colors:            get(6),
		Mood:              get(7),
		Emotion:           get(8),
		Movement:          get(9),
		Setting:           get(10),
		Lighting:          get(11),
		Composition:       get(12),
		ElementsList:      get(13),
		FullDescription:   get(14),
		CostEstimate:      get(15),
	}
}

// FromMap builds a record from a column-keyed map; absent columns are empty.
func FromMap(m map[string]string) Record {
	vals := make([]string, len(Columns))
	for i, c := range Columns {
		vals[i] = m[c]
	}
	return FromValues(vals)
}

// FromModelJSON fills the analytical fields of a record from a decoded JSON
// object. Keys outside AnalyticalFields are ignored.
func FromModelJSON(obj map[string]any) Record {
	m := make(map[string]string, len(AnalyticalFields))
	for _, f := range AnalyticalFields {
		m[f] = Stringify(obj[f])
	}
	return FromMap(m)
}

// Stringify coerces a decoded JSON value into a table cell.
func Stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case []any:
		parts := make([]string, 0, len(t))
		for _, it := range t {
			s, ok := it.(string)
			if !ok {
				return compactJSON(v)
			}
			parts = append(parts, s)
		}
		return strings.Join(parts, ", ")
	default:
		return compactJSON(v)
	}
}

func compactJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
