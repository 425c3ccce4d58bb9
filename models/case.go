package models

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Competency labels exactly as the portal's dropdown shows them.
const (
	CompetencySupreme    = "Corte Suprema"
	CompetencyAppeals    = "Corte Apelaciones"
	CompetencyCivil      = "Civil"
	CompetencyLabor      = "Laboral"
	CompetencyCriminal   = "Penal"
	CompetencyCollection = "Cobranza"
	CompetencyFamily     = "Familia"
)

// CaseQuery is one schedule lookup as submitted by the caller.
//
// Court and Book are only meaningful when Competency is CompetencyAppeals.
type CaseQuery struct {
	Competency string `json:"competency"`
	Rol        string `json:"rol"`
	Year       string `json:"year"`
	Court      string `json:"court,omitempty"`
	Book       string `json:"book,omitempty"`
}

// IsAppeals reports whether the query targets the appeals-court branch of
// the portal form, which needs the extra court and book dropdowns.
func (q CaseQuery) IsAppeals() bool {
	return q.Competency == CompetencyAppeals
}

// UnmarshalJSON accepts both bare case objects and the wrapped
// {"json": {...}} shape produced by workflow tools, and tolerates numeric
// rol/year values coming out of spreadsheets.
func (q *CaseQuery) UnmarshalJSON(data []byte) error {
	var wrapper struct {
		JSON json.RawMessage `json:"json"`
	}
	if err := json.Unmarshal(data, &wrapper); err == nil && len(wrapper.JSON) > 0 && wrapper.JSON[0] == '{' {
		data = wrapper.JSON
	}

	var raw struct {
		Competency looseString `json:"competency"`
		Rol        looseString `json:"rol"`
		Year       looseString `json:"year"`
		Court      looseString `json:"court"`
		Book       looseString `json:"book"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*q = CaseQuery{
		Competency: string(raw.Competency),
		Rol:        string(raw.Rol),
		Year:       string(raw.Year),
		Court:      string(raw.Court),
		Book:       string(raw.Book),
	}
	return nil
}

// looseString decodes JSON strings, numbers and null into a Go string.
type looseString string

func (s *looseString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*s = ""
		return nil
	case len(data) > 0 && data[0] == '"':
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = looseString(v)
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		if i, err := n.Int64(); err == nil {
			*s = looseString(strconv.FormatInt(i, 10))
			return nil
		}
		*s = looseString(n.String())
		return nil
	}
}
