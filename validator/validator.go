// Package validator splits an incoming batch into cases that can be sent to
// the portal and cases that cannot. It performs no I/O.
package validator

import (
	"fmt"
	"strings"

	"github.com/use-agent/courtsched/models"
)

// Indexed is a validated case together with its position in the batch.
type Indexed struct {
	Index int
	Case  models.CaseQuery
}

// Partition checks every case independently. Valid cases are returned in
// input order with their original indices; invalid ones are reported as a
// map from index to message.
func Partition(cases []models.CaseQuery) ([]Indexed, map[int]string) {
	valid := make([]Indexed, 0, len(cases))
	invalid := make(map[int]string)

	for i, c := range cases {
		v, err := Validate(c)
		if err != nil {
			invalid[i] = err.Error()
			continue
		}
		valid = append(valid, Indexed{Index: i, Case: v})
	}
	return valid, invalid
}

// Validate returns the normalised case or a ValidationError naming the
// offending field. Court and book are dropped for non-appeals cases.
func Validate(c models.CaseQuery) (models.CaseQuery, error) {
	c = models.CaseQuery{
		Competency: strings.TrimSpace(c.Competency),
		Rol:        strings.TrimSpace(c.Rol),
		Year:       strings.TrimSpace(c.Year),
		Court:      strings.TrimSpace(c.Court),
		Book:       strings.TrimSpace(c.Book),
	}

	switch {
	case c.Competency == "":
		return c, invalid("competency is required")
	case !competencies.has(c.Competency):
		return c, invalid(fmt.Sprintf("competency %q is not valid", c.Competency))
	case c.Rol == "":
		return c, invalid("rol is required")
	case c.Year == "":
		return c, invalid("year is required")
	}

	if !c.IsAppeals() {
		c.Court, c.Book = "", ""
		return c, nil
	}

	switch {
	case c.Court == "":
		return c, invalid("court is required for " + models.CompetencyAppeals)
	case !courts.has(c.Court):
		return c, invalid(fmt.Sprintf("court %q is not valid", c.Court))
	case c.Book == "":
		return c, invalid("book is required for " + models.CompetencyAppeals)
	case !books.has(c.Book):
		return c, invalid(fmt.Sprintf("book %q is not valid", c.Book))
	}
	return c, nil
}

// ValidationError is the per-case rejection. Its message is what ends up
// in the case's result slot.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func invalid(msg string) error {
	return &ValidationError{Message: msg}
}
