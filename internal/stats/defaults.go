package stats

// Defaults returns the built-in snapshot used when neither the remote endpoint
// nor the bundled resource can be loaded. A fresh copy is returned on each call.
func Defaults() Snapshot {
	return Snapshot{
		record("Work", 5, 7, 32, 36, 103, 128),
		record("Play", 1, 2, 10, 8, 23, 29),
		record("Study", 0, 1, 4, 7, 13, 19),
		record("Exercise", 1, 1, 4, 5, 11, 18),
		record("Social", 1, 3, 5, 10, 21, 23),
		record("Self Care", 0, 1, 2, 2, 7, 11),
	}
}

func record(title string, dc, dp, wc, wp, mc, mp float64) ActivityRecord {
	return ActivityRecord{
		Title: title,
		Timeframes: map[Timeframe]Metric{
			Daily:   {Current: dc, Previous: dp},
			Weekly:  {Current: wc, Previous: wp},
			Monthly: {Current: mc, Previous: mp},
		},
	}
}
