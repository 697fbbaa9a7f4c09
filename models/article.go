package models

// Article is one story with its quiz, loaded from the catalog
type Article struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Years    string   `json:"years"`
	Portrait string   `json:"portrait"`
	Body     []string `json:"body"`
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Correct  int      `json:"correct"`
}

// Fact is a piece of trivia bought with arcade stars
type Fact struct {
	Text string `json:"text"`
	Cost int    `json:"cost"`
}

// Slide is one onboarding page
type Slide struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}
