package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// PaymentOption selects which service package the applicant pays for.
type PaymentOption string

const (
	PaymentAdmission PaymentOption = "admission"
	PaymentBoth      PaymentOption = "both"
)

// ParsePaymentOption accepts the two known options. An empty value maps to
// admission, which is what a fresh form starts with.
func ParsePaymentOption(value string) (PaymentOption, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", string(PaymentAdmission):
		return PaymentAdmission, nil
	case string(PaymentBoth):
		return PaymentBoth, nil
	}
	return "", fmt.Errorf("unknown payment option %q", value)
}

// Label is the human readable name shown on receipts.
func (p PaymentOption) Label() string {
	if p == PaymentBoth {
		return "Admission & Funding"
	}
	return "Admission Only"
}

func (p PaymentOption) String() string {
	return string(p)
}

// Editable draft fields, named as the form submits them.
const (
	FieldFirstName       = "firstName"
	FieldMiddleName      = "middleName"
	FieldSurname         = "surname"
	FieldPhone           = "phone"
	FieldCountry         = "country"
	FieldPreviousProgram = "previousProgram"
	FieldIntendedProgram = "intendedProgram"
	FieldPaymentOption   = "paymentOption"
	FieldAgreed          = "agreed"
)

// Draft is the in-progress application. It is a value: With returns a new
// snapshot and never touches the receiver.
type Draft struct {
	FirstName       string
	MiddleName      string
	Surname         string
	Phone           string
	Country         string
	PreviousProgram string
	IntendedProgram string
	PaymentOption   PaymentOption
	Agreed          bool
}

// NewDraft returns the empty draft a session starts with.
func NewDraft() Draft {
	return Draft{PaymentOption: PaymentAdmission}
}

// With returns a copy of d with one field replaced.
func (d Draft) With(field, value string) (Draft, error) {
	switch field {
	case FieldFirstName:
		d.FirstName = value
	case FieldMiddleName:
		d.MiddleName = value
	case FieldSurname:
		d.Surname = value
	case FieldPhone:
		d.Phone = value
	case FieldCountry:
		d.Country = value
	case FieldPreviousProgram:
		d.PreviousProgram = value
	case FieldIntendedProgram:
		d.IntendedProgram = value
	case FieldPaymentOption:
		option, err := ParsePaymentOption(value)
		if err != nil {
			return d, err
		}
		d.PaymentOption = option
	case FieldAgreed:
		agreed, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			return d, fmt.Errorf("agreed must be true or false, got %q", value)
		}
		d.Agreed = agreed
	default:
		return d, fmt.Errorf("unknown field %q", field)
	}
	return d, nil
}

// FullName joins the non-empty name parts with single spaces.
func (d Draft) FullName() string {
	return strings.Join(strings.Fields(strings.Join([]string{d.FirstName, d.MiddleName, d.Surname}, " ")), " ")
}
