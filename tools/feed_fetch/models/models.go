package models

// Item is one normalized feed entry.
type Item struct {
	Title     string `json:"title"`
	Link      string `json:"link"`
	Summary   string `json:"summary"`
	Published string `json:"published"`
	Author    string `json:"author"`
}

// Result is the payload of one feed fetch. A dead or unparseable feed carries
// Error and an empty item list.
type Result struct {
	Error     string `json:"error,omitempty"`
	FeedTitle string `json:"feed_title,omitempty"`
	Items     []Item `json:"items"`
}
