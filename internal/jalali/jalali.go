// Package jalali is the single calendar-conversion boundary. Batch
// identifiers embed Jalali (Solar Hijri) date buckets because that is what
// operators on the mill floor read; everything else in the engine works on
// plain time.Time values and never touches this package.
package jalali

import (
	"fmt"
	"time"

	ptime "github.com/yaa110/go-persian-calendar"
)

// Bucket returns the YYMMDD date-bucket segment for t, e.g. 1404-09-29
// Jalali renders as "040929". The century is dropped to keep identifiers
// short.
func Bucket(t time.Time) string {
	j := ptime.New(t)
	return fmt.Sprintf("%02d%02d%02d", j.Year()%100, int(j.Month()), j.Day())
}

// TodayBucket returns the bucket for the current wall-clock day.
func TodayBucket() string {
	return Bucket(time.Now())
}

// Display renders t as a full Jalali date for human output: "1404/09/29".
func Display(t time.Time) string {
	j := ptime.New(t)
	return fmt.Sprintf("%04d/%02d/%02d", j.Year(), int(j.Month()), j.Day())
}
