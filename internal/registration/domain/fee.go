package domain

import "strings"

const (
	DefaultAdmissionFee = 294.0
	DefaultBothFee      = 588.0
)

// CountrySet holds the countries eligible for the regional discount.
// Lookups are case-insensitive.
type CountrySet struct {
	entries map[string]struct{}
}

// NewCountrySet builds a set from display names. Blank names are ignored.
func NewCountrySet(names []string) CountrySet {
	entries := make(map[string]struct{}, len(names))
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		entries[strings.ToLower(name)] = struct{}{}
	}
	return CountrySet{entries: entries}
}

// Contains reports whether country matches an entry, ignoring case.
func (s CountrySet) Contains(country string) bool {
	if len(s.entries) == 0 {
		return false
	}
	_, ok := s.entries[strings.ToLower(country)]
	return ok
}

func (s CountrySet) Len() int {
	return len(s.entries)
}

// FeeSchedule prices a payment option for an applicant's country.
type FeeSchedule struct {
	AdmissionFee float64
	BothFee      float64
	Qualifying   CountrySet
}

// DefaultFeeSchedule uses the published prices and the African country list.
func DefaultFeeSchedule() FeeSchedule {
	return FeeSchedule{
		AdmissionFee: DefaultAdmissionFee,
		BothFee:      DefaultBothFee,
		Qualifying:   NewCountrySet(AfricanCountries),
	}
}

// BaseFee is the undiscounted price. Anything other than "both" is priced as
// admission only.
func (s FeeSchedule) BaseFee(option PaymentOption) float64 {
	if option == PaymentBoth {
		return s.BothFee
	}
	return s.AdmissionFee
}

// ComputeFee halves the base fee for qualifying countries. isDiscounted is
// derived from the price comparison rather than the country lookup.
func (s FeeSchedule) ComputeFee(option PaymentOption, country string) (fee float64, isDiscounted bool) {
	base := s.BaseFee(option)
	fee = base
	if s.Qualifying.Contains(country) {
		fee = base / 2
	}
	return fee, fee < base
}

// Quote is a priced view of an option/country pair.
type Quote struct {
	PaymentOption PaymentOption
	Country       string
	BaseFee       float64
	Fee           float64
	IsDiscounted  bool
}

func (s FeeSchedule) Quote(option PaymentOption, country string) Quote {
	fee, discounted := s.ComputeFee(option, country)
	return Quote{
		PaymentOption: option,
		Country:       country,
		BaseFee:       s.BaseFee(option),
		Fee:           fee,
		IsDiscounted:  discounted,
	}
}
