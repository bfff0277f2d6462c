package domain

import "time"

// MessageStub is the minimal reference a listing call returns.
type MessageStub struct {
	ID string `json:"id"`
}

// MessagePage is one page of a listing. An empty NextCursor ends the listing.
type MessagePage struct {
	Stubs      []MessageStub `json:"stubs"`
	NextCursor string        `json:"next_cursor,omitempty"`
}

// MessageDetail carries the metadata headers needed for classification.
type MessageDetail struct {
	ID      string `json:"id"`
	From    string `json:"from"`
	Subject string `json:"subject"`
	Date    string `json:"date"`
	Snippet string `json:"snippet"`
}

// ReceivedAt parses the Date header, returning the zero time on failure.
func (m *MessageDetail) ReceivedAt() time.Time {
	return parseMailDate(m.Date)
}
