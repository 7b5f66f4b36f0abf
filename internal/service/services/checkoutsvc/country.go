package checkoutsvc

// countryCodes maps the free-text country names the storefront historically
// collected to the ISO codes the fulfillment gateway requires.
var countryCodes = map[string]string{
	"United States":  "US",
	"Canada":         "CA",
	"United Kingdom": "GB",
	"Australia":      "AU",
	"Germany":        "DE",
	"France":         "FR",
	"Spain":          "ES",
	"Italy":          "IT",
	"Netherlands":    "NL",
	"Belgium":        "BE",
	"Austria":        "AT",
	"Switzerland":    "CH",
	"Sweden":         "SE",
	"Norway":         "NO",
	"Denmark":        "DK",
	"Finland":        "FI",
	"Iceland":        "IS",
	"Ireland":        "IE",
	"Portugal":       "PT",
	"Poland":         "PL",
	"Czech Republic": "CZ",
	"Japan":          "JP",
	"South Korea":    "KR",
	"Singapore":      "SG",
	"New Zealand":    "NZ",
	"Mexico":         "MX",
	"Brazil":         "BR",
}

// CountryCode resolves a country name to its ISO code. Unrecognized names
// fall back to US rather than failing; the gateway requires a code and the
// checkout form collects free text.
func CountryCode(name string) string {
	if code, ok := countryCodes[name]; ok {
		return code
	}

	return "US"
}
