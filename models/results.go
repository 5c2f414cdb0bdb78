package models

type PageRef struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

type Pagination struct {
	Next *PageRef `json:"next,omitempty"`
	Prev *PageRef `json:"prev,omitempty"`
}

// Results is the envelope produced by the advanced results listing.
type Results struct {
	Success    bool       `json:"success"`
	Count      int        `json:"count"`
	Total      int64      `json:"total"`
	Pagination Pagination `json:"pagination"`
	Data       any        `json:"data"`
}
