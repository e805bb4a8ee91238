package model

type Citation struct {
	Document string `json:"document"`
	Section  string `json:"section"`
	Page     int    `json:"page,omitempty"`
}

type Answer struct {
	Text             string     `json:"text,omitempty"`
	Citations        []Citation `json:"citations"`
	Confidence       float64    `json:"confidence"`
	Message          string     `json:"message,omitempty"`
	RequestID        string     `json:"request_id"`
	ProcessingTimeMs int64      `json:"processing_time_ms"`
}

// Grounded reports whether the answer carries generated text backed by at
// least one validated citation. A non-grounded answer is the "not found"
// outcome and must carry a message instead.
func (a *Answer) Grounded() bool {
	return a.Text != "" && len(a.Citations) > 0
}
