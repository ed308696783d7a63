package http

import (
	"time"

	xutil "BrentCast/pkg/util"
)

// ParseDate accepts YYYY-MM-DD, YYYY/MM/DD and DD/MM/YYYY. Returns (t, true) if any worked.
func ParseDate(s string) (time.Time, bool) { return xutil.ParseDate(s) }
