package units

import (
	"fmt"
	"time"
)

// UtcDateTime wraps a unix-seconds timestamp the way
// original_source/blong/ada_gps/src/utc_date_time.rs does: a thin value
// object over the platform time type, exposing field accessors and a
// canonical "YYYY-MM-DD HH:MM:SS.µ UTC" format. There is no third-party
// time library anywhere in the retrieved corpus, so this one value object
// is built directly on the standard library (see DESIGN.md).
type UtcDateTime struct {
	t time.Time
}

// NewUtcDateTimeFromUnix builds a UtcDateTime from unix seconds. It returns
// ok=false for timestamps time.Time cannot represent, mirroring the
// source's UtcDateTime::from_unix returning Option<Self>.
func NewUtcDateTimeFromUnix(sec int64) (UtcDateTime, bool) {
	t := time.Unix(sec, 0).UTC()
	if t.Year() < 0 || t.Year() > 9999 {
		return UtcDateTime{}, false
	}
	return UtcDateTime{t: t}, true
}

func (u UtcDateTime) Year() int        { return u.t.Year() }
func (u UtcDateTime) Month() int       { return int(u.t.Month()) }
func (u UtcDateTime) Day() int         { return u.t.Day() }
func (u UtcDateTime) Hour() int        { return u.t.Hour() }
func (u UtcDateTime) Minute() int      { return u.t.Minute() }
func (u UtcDateTime) Second() int      { return u.t.Second() }
func (u UtcDateTime) Microsecond() int { return u.t.Nanosecond() / 1000 }
func (u UtcDateTime) Unix() int64      { return u.t.Unix() }
func (u UtcDateTime) Time() time.Time  { return u.t }

func (u UtcDateTime) String() string {
	return fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d.%d UTC",
		u.Year(), u.Month(), u.Day(), u.Hour(), u.Minute(), u.Second(), u.Microsecond())
}
