package dataforseo

import (
	"fmt"
	"sort"
	"strings"

	apierrors "github.com/internetyev/paafetch/pkg/errors"
)

// countryLocationCodes maps ISO 3166-1 alpha-2 country codes to
// DataForSEO location codes for the countries the tool supports.
var countryLocationCodes = map[string]int{
	"US": 2840, // United States
	"GB": 2826, // United Kingdom
	"CA": 2124, // Canada
	"AU": 2036, // Australia
	"DE": 2276, // Germany
	"FR": 2250, // France
	"ES": 2724, // Spain
	"IT": 2380, // Italy
	"NL": 2528, // Netherlands
	"BE": 2056, // Belgium
	"CH": 2756, // Switzerland
	"AT": 2040, // Austria
	"SE": 2752, // Sweden
	"NO": 2578, // Norway
	"DK": 2208, // Denmark
	"FI": 2246, // Finland
	"PL": 2616, // Poland
	"IE": 2372, // Ireland
	"NZ": 2554, // New Zealand
	"JP": 2392, // Japan
	"KR": 2410, // South Korea
	"IN": 2356, // India
	"BR": 2076, // Brazil
	"MX": 2484, // Mexico
	"AR": 2032, // Argentina
	"CL": 2152, // Chile
	"CO": 2170, // Colombia
	"ZA": 2710, // South Africa
	"AE": 2784, // United Arab Emirates
	"SG": 2702, // Singapore
	"MY": 2458, // Malaysia
	"TH": 2764, // Thailand
	"PH": 2608, // Philippines
	"ID": 2360, // Indonesia
	"VN": 2704, // Vietnam
	"TW": 2158, // Taiwan
	"HK": 2344, // Hong Kong
	"CN": 2156, // China
	"RU": 2642, // Russia
	"TR": 2792, // Turkey
	"GR": 2300, // Greece
	"PT": 2620, // Portugal
	"CZ": 2203, // Czech Republic
	"HU": 2348, // Hungary
	"RO": 2642, // Romania
	"UA": 2804, // Ukraine
}

// LocationCode converts an ISO 2-letter country code to the DataForSEO
// location code. Unknown codes are a configuration error.
func LocationCode(country string) (int, error) {
	code, ok := countryLocationCodes[strings.ToUpper(country)]
	if !ok {
		return 0, &apierrors.Error{
			Type:    apierrors.ErrorTypeConfig,
			Message: fmt.Sprintf("unknown country code %q, use a supported ISO 2-letter code", country),
		}
	}
	return code, nil
}

// SupportedCountries returns the supported country codes, sorted.
func SupportedCountries() []string {
	countries := make([]string, 0, len(countryLocationCodes))
	for c := range countryLocationCodes {
		countries = append(countries, c)
	}
	sort.Strings(countries)
	return countries
}
