// Package article defines the bulletin-board's single data type.
package article

// Article is an immutable post or reply. Replies are ordinary articles
// whose ParentID references another article; roots leave ParentID nil.
//
// ClientID and WriteCounter are only populated under Read-Your-Writes
// consistency, where they identify the client and per-client write that
// produced the article.
type Article struct {
	ID           int64  `json:"id"`
	ParentID     *int64 `json:"parent_id"`
	Title        string `json:"title"`
	Content      string `json:"content"`
	ClientID     string `json:"client_id,omitempty"`
	WriteCounter int64  `json:"write_counter,omitempty"`
}

// Summary is the listing projection returned by read_articles: id,
// parent_id and title only, never content.
type Summary struct {
	ID       int64  `json:"id"`
	ParentID *int64 `json:"parent_id"`
	Title    string `json:"title"`
}

// ToSummary drops content, client_id and write_counter for the listing view.
func (a Article) ToSummary() Summary {
	return Summary{ID: a.ID, ParentID: a.ParentID, Title: a.Title}
}

// IsRoot reports whether the article has no parent.
func (a Article) IsRoot() bool {
	return a.ParentID == nil
}
