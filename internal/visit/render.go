package visit

import "strings"

const (
	listingHeader = "🎾 **Запланированные визиты:**"
	emptyListing  = "🎾 Нет запланированных визитов"
)

// Render formats visits as the Markdown listing shown to users, in the
// given order. An empty slice renders the fixed "nothing scheduled" line.
func Render(visits []Visit) string {
	if len(visits) == 0 {
		return emptyListing
	}

	lines := make([]string, 0, 2+2*len(visits))
	lines = append(lines, listingHeader, "")
	for _, v := range visits {
		lines = append(lines, "📅 **"+v.DateString()+"** в **"+v.TimeRangeString()+"**", "")
	}
	return strings.Join(lines, "\n")
}
