package models

// Result is one search hit.
type Result struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

// ResultSet is the full payload for one query. A failed search carries the
// failure in Error with an empty result list; callers hand the whole set to
// the model either way.
type ResultSet struct {
	Error   string   `json:"error,omitempty"`
	Query   string   `json:"query"`
	Results []Result `json:"results"`
	Source  string   `json:"source,omitempty"`
}
