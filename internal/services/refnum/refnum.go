// Package refnum builds human-facing reference numbers such as tracking and
// shipment numbers: a prefix, the creation time in unix milliseconds and a
// zero-padded sequence derived from the collection size.
//
// Two concurrent callers can compute the same value; the store's unique index
// decides and the caller retries with a fresh number.
package refnum

import (
	"fmt"
	"time"
)

const (
	TrackingPrefix = "ECSL"
	TrackingWidth  = 4

	ShipmentPrefix = "SHP"
	ShipmentWidth  = 3
)

func Generate(prefix string, now time.Time, count int64, width int) string {
	return fmt.Sprintf("%s%d%0*d", prefix, now.UnixMilli(), width, count+1)
}

func Tracking(now time.Time, count int64) string {
	return Generate(TrackingPrefix, now, count, TrackingWidth)
}

func Shipment(now time.Time, count int64) string {
	return Generate(ShipmentPrefix, now, count, ShipmentWidth)
}
