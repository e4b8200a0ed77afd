package endpoints

import (
	"github.com/storyloom/storyloom/internal/parse"
	"github.com/storyloom/storyloom/internal/store"
)

// SubmitResponse acknowledges a submitted generation request.
type SubmitResponse struct {
	ID     string       `json:"id"`
	Status store.Status `json:"status"`
}

// WorkDetail is a work with its decoded characters and ordered scenes.
// Polling clients read this to watch the pipeline fill fields in.
type WorkDetail struct {
	store.Work
	Characters []parse.Character `json:"characters"`
	Scenes     []store.Scene     `json:"scenes"`
}

// WorkListResponse wraps the works listing.
type WorkListResponse struct {
	Works []store.WorkSummary `json:"works"`
	Count int                 `json:"count"`
}

// DeleteResponse acknowledges a deletion.
type DeleteResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}
