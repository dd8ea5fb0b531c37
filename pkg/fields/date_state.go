package fields

import (
	"fmt"
	"strings"
)

// DatePart indexes one component of a composite date. The order is the join
// order of the stored value: year, month, day.
type DatePart int

const (
	PartYear DatePart = iota
	PartMonth
	PartDay
)

// DateSeparator joins the three parts of a stored date.
const DateSeparator = "-"

var dateParts = [...]DatePart{PartYear, PartMonth, PartDay}

func (p DatePart) String() string {
	switch p {
	case PartYear:
		return "year"
	case PartMonth:
		return "month"
	case PartDay:
		return "day"
	default:
		return fmt.Sprintf("DatePart(%d)", int(p))
	}
}

// DatePhase is the completeness of a composite date.
type DatePhase int

const (
	DateEmpty DatePhase = iota
	DatePartial
	DateComplete
)

func (p DatePhase) String() string {
	switch p {
	case DateEmpty:
		return "empty"
	case DatePartial:
		return "partial"
	default:
		return "complete"
	}
}

// DateState accumulates the three parts of a date as they arrive from
// independent control events. The zero value is empty.
type DateState struct {
	parts [3]string
}

// ParseDateState reads a stored "year-month-day" value. Anything that is not
// a three-part string leaves every part unset.
func ParseDateState(stored any) DateState {
	raw, ok := stored.(string)
	if !ok || raw == "" {
		return DateState{}
	}
	items := strings.Split(raw, DateSeparator)
	if len(items) != len(dateParts) {
		return DateState{}
	}
	var state DateState
	for idx, item := range items {
		state.parts[idx] = strings.TrimSpace(item)
	}
	return state
}

// Phase reports how many parts are set.
func (s DateState) Phase() DatePhase {
	set := 0
	for _, part := range s.parts {
		if part != "" {
			set++
		}
	}
	switch set {
	case 0:
		return DateEmpty
	case len(s.parts):
		return DateComplete
	default:
		return DatePartial
	}
}

// Part returns one component and whether it is set.
func (s DateState) Part(part DatePart) (string, bool) {
	value := s.parts[part]
	return value, value != ""
}

// Set stores one component and returns the resulting state. An empty value
// clears the part.
func (s DateState) Set(part DatePart, value string) DateState {
	s.parts[part] = strings.TrimSpace(value)
	return s
}

// Value joins the parts in year-month-day order. It is only meaningful in the
// complete phase.
func (s DateState) Value() string {
	return strings.Join(s.parts[:], DateSeparator)
}

// datePartFromStored extracts the part at index from a stored value.
func datePartFromStored(stored any, part DatePart) (string, bool) {
	raw := stringValue(stored)
	if raw == "" {
		return "", false
	}
	items := strings.Split(raw, DateSeparator)
	if int(part) >= len(items) || items[part] == "" {
		return "", false
	}
	return items[part], true
}

// overlayDatePart writes value at part over stored, synthesising a blank
// three-part placeholder when nothing is stored yet. Filling parts in any order
// converges on a complete value: day=06 gives "--06", then year=2002 gives
// "2002--06", then month=05 gives "2002-05-06".
func overlayDatePart(stored any, part DatePart, value string) string {
	items := make([]string, len(dateParts))
	if raw := stringValue(stored); raw != "" {
		copy(items, strings.Split(raw, DateSeparator))
	}
	items[part] = value
	return strings.Join(items, DateSeparator)
}
