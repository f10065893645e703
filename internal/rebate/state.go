package rebate

import (
	"strconv"
	"strings"
	"time"
)

// SchemeEndYear is the last calendar year STCs are deemed for.
const SchemeEndYear = 2030

// DefaultZone is used when neither the postcode nor its state is mapped.
const DefaultZone = 3

// ZoneFallbackWarning is attached to results whose zone came from the state default.
const ZoneFallbackWarning = "Postcode not in zone map; used state default"

type postcodeRange struct {
	state    string
	from, to int
}

// Checked in order. 2600-2699 is inside the NSW range, so ACT is never reached.
var postcodeRanges = []postcodeRange{
	{state: "NSW", from: 2000, to: 2999},
	{state: "VIC", from: 3000, to: 3999},
	{state: "QLD", from: 4000, to: 4999},
	{state: "SA", from: 5000, to: 5999},
	{state: "WA", from: 6000, to: 6999},
	{state: "TAS", from: 7000, to: 7999},
	{state: "NT", from: 800, to: 899},
	{state: "ACT", from: 2600, to: 2699},
}

// StateFromPostcode resolves an Australian state code from a postcode.
// Unparseable or unmatched postcodes resolve to NSW.
func StateFromPostcode(postcode string) string {
	n, err := strconv.Atoi(strings.TrimSpace(postcode))
	if err != nil {
		return "NSW"
	}
	for _, r := range postcodeRanges {
		if n >= r.from && n <= r.to {
			return r.state
		}
	}
	return "NSW"
}

// ZoneFor returns the zone for postcode. fellBack reports whether the state default
// (or DefaultZone) was used instead of an exact postcode entry.
func (t *Tables) ZoneFor(postcode, state string) (zone int, fellBack bool) {
	if zone, ok := t.PostcodeZones[strings.TrimSpace(postcode)]; ok {
		return zone, false
	}
	if zone, ok := t.StateDefaultZones[strings.ToUpper(state)]; ok {
		return zone, true
	}
	return DefaultZone, true
}

// DeemingYears is the number of years STCs are deemed for a system installed on
// installDate, counting the install year through SchemeEndYear inclusive.
func DeemingYears(installDate time.Time) int {
	years := SchemeEndYear - installDate.Year() + 1
	if years < 0 {
		return 0
	}
	return years
}
