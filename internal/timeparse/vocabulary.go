package timeparse

import "time"

// MonthEntry maps one written form of a month to its number.
type MonthEntry struct {
	Name  string
	Month time.Month
}

// WeekdayEntry maps one written form of a weekday to time.Weekday.
// Abbrev marks the two-letter forms ("пн", "вт", ...).
type WeekdayEntry struct {
	Name    string
	Weekday time.Weekday
	Abbrev  bool
}

// RelativeEntry maps a relative-day keyword to a day offset from today.
type RelativeEntry struct {
	Keyword string
	Days    int
}

// Vocabulary holds the lookup tables used by the parser. It is built once
// and never mutated; order inside each slice is significant.
type Vocabulary struct {
	Months   []MonthEntry
	Weekdays []WeekdayEntry
	Relative []RelativeEntry

	monthIndex map[string]time.Month
}

// DefaultVocabulary returns the Russian tables: nominative and genitive month
// names, nominative/accusative/genitive weekday names with their abbreviations,
// and the relative-day keywords.
func DefaultVocabulary() *Vocabulary {
	v := &Vocabulary{
		Months: []MonthEntry{
			{"января", time.January}, {"январь", time.January},
			{"февраля", time.February}, {"февраль", time.February},
			{"марта", time.March}, {"март", time.March},
			{"апреля", time.April}, {"апрель", time.April},
			{"мая", time.May}, {"май", time.May},
			{"июня", time.June}, {"июнь", time.June},
			{"июля", time.July}, {"июль", time.July},
			{"августа", time.August}, {"август", time.August},
			{"сентября", time.September}, {"сентябрь", time.September},
			{"октября", time.October}, {"октябрь", time.October},
			{"ноября", time.November}, {"ноябрь", time.November},
			{"декабря", time.December}, {"декабрь", time.December},
		},
		Weekdays: []WeekdayEntry{
			{Name: "понедельник", Weekday: time.Monday},
			{Name: "понедельника", Weekday: time.Monday},
			{Name: "пн", Weekday: time.Monday, Abbrev: true},
			{Name: "вторник", Weekday: time.Tuesday},
			{Name: "вторника", Weekday: time.Tuesday},
			{Name: "вт", Weekday: time.Tuesday, Abbrev: true},
			{Name: "среда", Weekday: time.Wednesday},
			{Name: "среду", Weekday: time.Wednesday},
			{Name: "среды", Weekday: time.Wednesday},
			{Name: "ср", Weekday: time.Wednesday, Abbrev: true},
			{Name: "четверг", Weekday: time.Thursday},
			{Name: "четверга", Weekday: time.Thursday},
			{Name: "чт", Weekday: time.Thursday, Abbrev: true},
			{Name: "пятница", Weekday: time.Friday},
			{Name: "пятницу", Weekday: time.Friday},
			{Name: "пятницы", Weekday: time.Friday},
			{Name: "пт", Weekday: time.Friday, Abbrev: true},
			{Name: "суббота", Weekday: time.Saturday},
			{Name: "субботу", Weekday: time.Saturday},
			{Name: "субботы", Weekday: time.Saturday},
			{Name: "сб", Weekday: time.Saturday, Abbrev: true},
			{Name: "воскресенье", Weekday: time.Sunday},
			{Name: "воскресенья", Weekday: time.Sunday},
			{Name: "вс", Weekday: time.Sunday, Abbrev: true},
		},
		// Longest first: "послезавтра" contains "завтра".
		Relative: []RelativeEntry{
			{"послезавтра", 2},
			{"завтра", 1},
			{"сегодня", 0},
		},
	}
	v.index()
	return v
}

func (v *Vocabulary) index() {
	v.monthIndex = make(map[string]time.Month, len(v.Months))
	for _, m := range v.Months {
		v.monthIndex[m.Name] = m.Month
	}
}

// Month looks up a lower-cased month word.
func (v *Vocabulary) Month(word string) (time.Month, bool) {
	if v.monthIndex != nil {
		m, ok := v.monthIndex[word]
		return m, ok
	}
	for _, m := range v.Months {
		if m.Name == word {
			return m.Month, true
		}
	}
	return 0, false
}
