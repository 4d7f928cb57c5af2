package news

import "time"

// Item is one article of a news listing. Listings are returned newest first.
type Item struct {
	Title       string
	URL         string
	Source      string
	Summary     string // feed description, used when the article page yields nothing
	PublishedAt *time.Time
}
