package billing

import (
	"strconv"
	"time"
)

const billNumberLayout = "20060102-150405"

// BillNumber derives a human readable bill number from the issue time. The
// first attempt is prefix plus the timestamp to the second; retries after a
// collision append the attempt number.
func BillNumber(prefix string, issuedAt time.Time, attempt int) string {
	n := prefix + issuedAt.Format(billNumberLayout)
	if attempt > 0 {
		n += "-" + strconv.Itoa(attempt)
	}
	return n
}
