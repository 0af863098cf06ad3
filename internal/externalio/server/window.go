package server

import (
	"fmt"
	"net/http"
	"time"
)

const defaultWindow time.Duration = 1 * time.Minute

// Reads starttime/endtime form values.
// Start accepts RFC3339Nano or a relative duration (unparseable relative values fall back to the last minute).
// End accepts "now", RFC3339Nano or a relative duration.
func parseWindow(clientRequest *http.Request) (start, end time.Time, err error) {
	now := time.Now()

	rawStartTime := clientRequest.FormValue("starttime")
	switch {
	case rawStartTime == "":
		start = now.Add(-defaultWindow)
	case rawStartTime[0] == '-' || rawStartTime[0] == '+':
		dur, parseErr := time.ParseDuration(rawStartTime)
		if parseErr != nil {
			start = now.Add(-defaultWindow)
		} else {
			start = now.Add(dur)
		}
	default:
		start, err = time.Parse(time.RFC3339Nano, rawStartTime)
		if err != nil {
			err = fmt.Errorf("invalid start time: %v", err)
			return
		}
	}
	if start.After(now) {
		err = fmt.Errorf("start time %s is in the future", start.Format(time.RFC3339))
		return
	}

	rawEndTime := clientRequest.FormValue("endtime")
	switch {
	case rawEndTime == "" || rawEndTime == "now":
		end = now
	case rawEndTime[0] == '-' || rawEndTime[0] == '+':
		var dur time.Duration
		dur, err = time.ParseDuration(rawEndTime)
		if err != nil {
			err = fmt.Errorf("invalid relative end time: %v", err)
			return
		}
		end = now.Add(dur)
	default:
		end, err = time.Parse(time.RFC3339Nano, rawEndTime)
		if err != nil {
			err = fmt.Errorf("invalid end time: %v", err)
			return
		}
	}
	if end.Before(start) {
		err = fmt.Errorf("end time is before start time")
	}
	return
}
