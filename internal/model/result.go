package model

// Result is the outcome of converting one input file.
type Result struct {
	Index       int    `json:"index"`
	Name        string `json:"name"`
	Source      string `json:"source"`
	Locator     string `json:"locator,omitempty"`
	Size        int64  `json:"size,omitempty"`
	ContentType string `json:"contentType,omitempty"`
	Success     bool   `json:"success"`
	Error       string `json:"error,omitempty"`
}

// Summary counts successes and failures across results.
func Summary(results []Result) (ok, failed int) {
	for _, r := range results {
		if r.Success {
			ok++
		} else {
			failed++
		}
	}
	return ok, failed
}
