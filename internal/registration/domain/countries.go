package domain

// AfricanCountries is the default discount list.
var AfricanCountries = []string{
	"Nigeria", "Ethiopia", "Egypt", "DR Congo", "South Africa",
	"Tanzania", "Kenya", "Uganda", "Algeria", "Sudan",
	"Morocco", "Angola", "Ghana", "Mozambique", "Madagascar",
	"Cameroon", "Côte d'Ivoire", "Niger", "Burkina Faso",
	"Mali", "Malawi", "Zambia", "Senegal", "Chad", "Somalia",
	"Zimbabwe", "Guinea", "Rwanda", "Benin", "Burundi",
	"Tunisia", "South Sudan", "Togo", "Sierra Leone", "Libya",
	"Congo", "Liberia", "Central African Republic", "Mauritania",
	"Eritrea", "Namibia", "Gambia", "Botswana", "Gabon",
	"Lesotho", "Guinea-Bissau", "Equatorial Guinea",
	"Mauritius", "Eswatini", "Djibouti", "Comoros",
	"Cabo Verde", "Sao Tome and Principe", "Seychelles",
}
