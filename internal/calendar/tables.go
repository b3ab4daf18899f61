package calendar

import "time"

func weekdaysMonFri() map[time.Weekday]bool {
	return map[time.Weekday]bool{
		time.Monday:    true,
		time.Tuesday:   true,
		time.Wednesday: true,
		time.Thursday:  true,
		time.Friday:    true,
	}
}

func minute(h, m int) MinuteOfDay {
	return MinuteOfDay(h*60 + m)
}

// DefaultSegments returns the built-in trading windows, all in IST.
// NSE equity comes first: unknown exchange codes degrade to its hours.
func DefaultSegments() []Segment {
	return []Segment{
		{Name: "NSE Equity", Exchange: "NSE", Start: minute(9, 15), End: minute(15, 30), Weekdays: weekdaysMonFri()},
		{Name: "BSE Equity", Exchange: "BSE", Start: minute(9, 15), End: minute(15, 30), Weekdays: weekdaysMonFri()},
		{Name: "NSE F&O", Exchange: "NFO", Start: minute(9, 15), End: minute(15, 30), Weekdays: weekdaysMonFri()},
		{Name: "MCX Commodities", Exchange: "MCX", Start: minute(9, 0), End: minute(23, 55), Weekdays: weekdaysMonFri()},
		{Name: "Currency Derivatives", Exchange: "CDS", Start: minute(9, 0), End: minute(17, 0), Weekdays: weekdaysMonFri()},
		{Name: "BSE Derivatives", Exchange: "BFO", Start: minute(9, 0), End: minute(17, 0), Weekdays: weekdaysMonFri()},
	}
}

// DefaultHolidays returns the 2025 exchange holiday table.
func DefaultHolidays() []Holiday {
	return []Holiday{
		{Date: "2025-01-26", Exchanges: []string{"NSE", "BSE", "MCX"}, Name: "Republic Day"},
		{Date: "2025-02-26", Exchanges: []string{"NSE", "BSE"}, Name: "Maha Shivaratri"},
		{Date: "2025-03-14", Exchanges: []string{"NSE", "BSE"}, Name: "Holi"},
		{Date: "2025-03-31", Exchanges: []string{"NSE", "BSE"}, Name: "Eid-Ul-Fitr (Ramzan Eid)"},
		{Date: "2025-04-10", Exchanges: []string{"NSE", "BSE"}, Name: "Mahavir Jayanti"},
		{Date: "2025-04-14", Exchanges: []string{"NSE", "BSE"}, Name: "Dr. Baba Saheb Ambedkar Jayanti"},
		{Date: "2025-04-18", Exchanges: []string{"NSE", "BSE", "MCX"}, Name: "Good Friday"},
		{Date: "2025-05-01", Exchanges: []string{"NSE", "BSE"}, Name: "Maharashtra Day"},
		{Date: "2025-08-15", Exchanges: []string{"NSE", "BSE", "MCX"}, Name: "Independence Day"},
		{Date: "2025-08-27", Exchanges: []string{"NSE", "BSE"}, Name: "Ganesh Chaturthi"},
		{Date: "2025-10-02", Exchanges: []string{"NSE", "BSE", "MCX"}, Name: "Mahatma Gandhi Jayanti"},
		{Date: "2025-10-21", Exchanges: []string{"NSE", "BSE", "MCX"}, Name: "Diwali-Laxmi Pujan (Muhurat trading session)"},
		{Date: "2025-10-22", Exchanges: []string{"NSE", "BSE"}, Name: "Diwali-Balipratipada"},
		{Date: "2025-11-05", Exchanges: []string{"NSE", "BSE"}, Name: "Gurunanak Jayanti"},
		{Date: "2025-12-25", Exchanges: []string{"NSE", "BSE", "MCX"}, Name: "Christmas"},
	}
}
