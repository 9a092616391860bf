package utils

import "time"

// Korea Standard Time (+09:00, no DST)
var kstLoc = func() *time.Location {
	if loc, err := time.LoadLocation("Asia/Seoul"); err == nil {
		return loc
	}
	return time.FixedZone("KST", 9*3600)
}()

func KST() *time.Location { return kstLoc }

func NowUnixSeconds() int64 { return time.Now().Unix() }

// FromUnixSecondsKST returns zero time if t<=0 so callers decide how to render.
func FromUnixSecondsKST(t int64) time.Time {
	if t <= 0 {
		return time.Time{}
	}
	return time.Unix(t, 0).In(kstLoc)
}

// MonthKey buckets usage counters by calendar month in Korea.
func MonthKey(t time.Time) string {
	return t.In(kstLoc).Format("2006-01")
}

// EndOfMonthKST is the first instant of the following month.
func EndOfMonthKST(t time.Time) time.Time {
	k := t.In(kstLoc)
	return time.Date(k.Year(), k.Month()+1, 1, 0, 0, 0, 0, kstLoc)
}

// DaysBetween counts calendar days in KST from a to b (b later is positive).
func DaysBetween(a, b time.Time) int {
	ay, am, ad := a.In(kstLoc).Date()
	by, bm, bd := b.In(kstLoc).Date()
	da := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	db := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}

func FormatDateKST(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(kstLoc).Format("2006-01-02")
}

func FormatRFC3339KST(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(kstLoc).Format(time.RFC3339)
}
