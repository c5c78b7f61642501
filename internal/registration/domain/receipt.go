package domain

import (
	"net/url"
	"strconv"
	"strings"
)

const (
	whatsAppShareBase = "https://wa.me/?text="
	emailSubject      = "Application Summary"
)

// ShareLinks are deep links that hand the receipt text to another app.
type ShareLinks struct {
	WhatsApp string
	Email    string
}

// FormatFee prints an amount without trailing zeros, e.g. 147 or 147.5.
func FormatFee(amount float64) string {
	return strconv.FormatFloat(amount, 'f', -1, 64)
}

// Summary renders the plain-text receipt under the given title line.
func Summary(record Record, title string) string {
	agreed := "No"
	if record.Agreed {
		agreed = "Yes"
	}

	lines := []string{
		title,
		"Name: " + record.FullName(),
		"Phone: " + record.Phone,
		"Country: " + record.Country,
		"Previous Program: " + record.PreviousProgram,
		"Intended Program: " + record.IntendedProgram,
		"Payment Option: " + record.PaymentOption.Label(),
		"Fee Paid: $" + FormatFee(record.Fee),
		"Agreed to Terms: " + agreed,
	}
	if record.DocumentURL != nil && strings.TrimSpace(*record.DocumentURL) != "" {
		lines = append(lines, "Document: "+*record.DocumentURL)
	}

	var builder strings.Builder
	for i, line := range lines {
		if i > 0 {
			builder.WriteString("\n")
		}
		builder.WriteString(line)
	}
	return builder.String()
}

// BuildShareLinks returns WhatsApp and mailto links carrying the summary.
func BuildShareLinks(record Record) ShareLinks {
	return ShareLinks{
		WhatsApp: whatsAppShareBase + encodeComponent(Summary(record, "*Application Summary*:")),
		Email:    "mailto:?subject=" + encodeComponent(emailSubject) + "&body=" + encodeComponent(Summary(record, "Application Summary:")),
	}
}

// encodeComponent escapes spaces as %20 so mail clients do not show '+'.
func encodeComponent(value string) string {
	return strings.ReplaceAll(url.QueryEscape(value), "+", "%20")
}
