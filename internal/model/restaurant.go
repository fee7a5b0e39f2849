package model

// Restaurant is the unit of work for the pipeline: an identifier plus the
// homepage URL everything else is derived from.
type Restaurant struct {
	ID         string `json:"id"`
	Name       string `json:"name,omitempty"`
	WebsiteURL string `json:"website_url"`
}
