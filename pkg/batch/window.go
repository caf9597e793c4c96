package batch

// Window describes one page of a paginated request as an offset/limit pair.
// Start and Limit match the page object of the CMDB list APIs.
type Window struct {
	Start int `json:"start"`
	Limit int `json:"limit"`
}

// Plan computes the page windows covering [0, count) for the given page size.
// Windows are contiguous, non-overlapping, and ordered by offset. Every
// window requests the full limit; truncating the final page is the remote
// service's job. A count of zero yields an empty plan.
func Plan(count, limit int) []Window {
	if count <= 0 || limit <= 0 {
		return nil
	}

	windows := make([]Window, 0, (count+limit-1)/limit)
	for start := 0; start < count; start += limit {
		windows = append(windows, Window{Start: start, Limit: limit})
	}
	return windows
}
