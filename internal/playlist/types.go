package playlist

// Category is a playlist category as returned by the editor API.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Show is a raw playlist show entry. Category references Category.ID.
type Show struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Category int64  `json:"category"`
	TMDB     int64  `json:"tmdb,omitempty"`
}

// Episode is a single playlist episode entry.
type Episode struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Season  int    `json:"season"`
	Episode int    `json:"episode"`
}

// UpdateRequest identifies the show metadata assignment to push.
type UpdateRequest struct {
	ShowID     int64
	TMDBID     int64
	CategoryID int64
}

// UpdateReceipt is the editor's acknowledgement of a pushed update.
type UpdateReceipt struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type itemsEnvelope[T any] struct {
	Items []T `json:"items"`
}

type episodesEnvelope struct {
	Items []Episode `json:"items"`
}
