package domain

import (
	"fmt"
	"strconv"
	"time"
)

// CheckinRecord is the finalized result of one completed session, appended
// as a single spreadsheet row.
type CheckinRecord struct {
	Timestamp   time.Time
	OwnerName   string
	StoreName   string
	StoreRegion string
	Latitude    float64
	Longitude   float64
}

// MapLink returns a Google Maps URL pointing at the captured coordinate.
func (r *CheckinRecord) MapLink() string {
	return fmt.Sprintf("https://www.google.com/maps?q=%s,%s",
		formatCoord(r.Latitude), formatCoord(r.Longitude))
}

// Row returns the record's values in spreadsheet column order:
// timestamp, owner name, store name, store region, latitude, longitude,
// map link. The column order is convention shared with the sheet; do not
// reorder.
func (r *CheckinRecord) Row() []interface{} {
	return []interface{}{
		r.Timestamp.Format("2006-01-02 15:04:05"),
		r.OwnerName,
		r.StoreName,
		r.StoreRegion,
		formatCoord(r.Latitude),
		formatCoord(r.Longitude),
		r.MapLink(),
	}
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
