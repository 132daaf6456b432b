package domain

import "strings"

const AllIndustriesKey = "all"

// IndustrySelection is either AllIndustries or SingleIndustry.
type IndustrySelection interface {
	isIndustrySelection()
	String() string
}

type AllIndustries struct{}

func (AllIndustries) isIndustrySelection() {}
func (AllIndustries) String() string { return AllIndustriesKey }

type SingleIndustry struct {
	ID string
}

func (SingleIndustry) isIndustrySelection() {}
func (s SingleIndustry) String() string { return s.ID }

// ParseSelection maps "all" (and empty input) to AllIndustries and anything else to SingleIndustry.
func ParseSelection(raw string) IndustrySelection {
	id := strings.TrimSpace(raw)
	if id == "" || id == AllIndustriesKey {
		return AllIndustries{}
	}
	return SingleIndustry{ID: id}
}
