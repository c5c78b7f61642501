package public

import (
	"strings"
	"time"

	"github.com/yesglobal/registration/api/internal/registration/application"
	"github.com/yesglobal/registration/api/internal/registration/domain"
)

const summaryTitle = "Application Summary:"

type draftPayload struct {
	FirstName       string `json:"firstName"`
	MiddleName      string `json:"middleName"`
	Surname         string `json:"surname"`
	Phone           string `json:"phone"`
	Country         string `json:"country"`
	PreviousProgram string `json:"previousProgram"`
	IntendedProgram string `json:"intendedProgram"`
	PaymentOption   string `json:"paymentOption"`
	Agreed          bool   `json:"agreed"`
}

type createApplicationRequest struct {
	draftPayload
	DocumentURL *string `json:"documentUrl"`
}

type editDraftRequest struct {
	Fields map[string]any `json:"fields"`
}

type submitSessionRequest struct {
	DocumentURL *string `json:"documentUrl"`
}

type quoteResponse struct {
	PaymentOption string  `json:"paymentOption"`
	Label         string  `json:"label"`
	Country       string  `json:"country"`
	BaseFee       float64 `json:"baseFee"`
	Fee           float64 `json:"fee"`
	IsDiscounted  bool    `json:"isDiscounted"`
}

type applicationResponse struct {
	ID string `json:"id"`
	draftPayload
	Fee          float64 `json:"fee"`
	IsDiscounted bool    `json:"isDiscounted"`
	DocumentURL  *string `json:"documentUrl"`
	Timestamp    string  `json:"timestamp"`
}

type shareLinksResponse struct {
	WhatsApp string `json:"whatsapp"`
	Email    string `json:"email"`
}

type receiptResponse struct {
	Status      string              `json:"status"`
	Application applicationResponse `json:"application"`
	Summary     string              `json:"summary"`
	ShareLinks  shareLinksResponse  `json:"shareLinks"`
}

type sessionResponse struct {
	ID      string           `json:"id"`
	Draft   draftPayload     `json:"draft"`
	Quote   quoteResponse    `json:"quote"`
	Loading bool             `json:"loading"`
	Receipt *receiptResponse `json:"receipt,omitempty"`
}

type uploadResponse struct {
	URL string `json:"url"`
}

// toDomain trims every text field; the workflow stores values as given.
func (p draftPayload) toDomain() (domain.Draft, error) {
	option, err := domain.ParsePaymentOption(p.PaymentOption)
	if err != nil {
		return domain.Draft{}, err
	}
	return domain.Draft{
		FirstName:       strings.TrimSpace(p.FirstName),
		MiddleName:      strings.TrimSpace(p.MiddleName),
		Surname:         strings.TrimSpace(p.Surname),
		Phone:           strings.TrimSpace(p.Phone),
		Country:         strings.TrimSpace(p.Country),
		PreviousProgram: strings.TrimSpace(p.PreviousProgram),
		IntendedProgram: strings.TrimSpace(p.IntendedProgram),
		PaymentOption:   option,
		Agreed:          p.Agreed,
	}, nil
}

func newDraftPayload(d domain.Draft) draftPayload {
	return draftPayload{
		FirstName:       d.FirstName,
		MiddleName:      d.MiddleName,
		Surname:         d.Surname,
		Phone:           d.Phone,
		Country:         d.Country,
		PreviousProgram: d.PreviousProgram,
		IntendedProgram: d.IntendedProgram,
		PaymentOption:   d.PaymentOption.String(),
		Agreed:          d.Agreed,
	}
}

func newQuoteResponse(q domain.Quote) quoteResponse {
	return quoteResponse{
		PaymentOption: q.PaymentOption.String(),
		Label:         q.PaymentOption.Label(),
		Country:       q.Country,
		BaseFee:       q.BaseFee,
		Fee:           q.Fee,
		IsDiscounted:  q.IsDiscounted,
	}
}

func newReceiptResponse(record *domain.Record) receiptResponse {
	links := domain.BuildShareLinks(*record)
	return receiptResponse{
		Status: "submitted",
		Application: applicationResponse{
			ID:           record.ID,
			draftPayload: newDraftPayload(record.Draft),
			Fee:          record.Fee,
			IsDiscounted: record.IsDiscounted,
			DocumentURL:  record.DocumentURL,
			Timestamp:    record.Timestamp.UTC().Format(time.RFC3339),
		},
		Summary: domain.Summary(*record, summaryTitle),
		ShareLinks: shareLinksResponse{
			WhatsApp: links.WhatsApp,
			Email:    links.Email,
		},
	}
}

func newSessionResponse(s application.Snapshot) sessionResponse {
	resp := sessionResponse{
		ID:      s.SessionID,
		Draft:   newDraftPayload(s.Draft),
		Quote:   newQuoteResponse(s.Quote),
		Loading: s.Loading,
	}
	if s.Receipt != nil {
		receipt := newReceiptResponse(s.Receipt)
		resp.Receipt = &receipt
	}
	return resp
}
