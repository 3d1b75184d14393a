// Package api provides a client for the Aerial FM HTTP API.
package api

// Placement is a server-defined grouping of stations tied to a credential.
type Placement struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Station is a named channel of eligible tracks within a placement.
type Station struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Track, Artist and Release carry display metadata. The session core passes
// them through unmodified.
type Track struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type Artist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Release struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// AudioFile describes the playable audio for a play.
type AudioFile struct {
	URL             string  `json:"url"`
	DurationSeconds float64 `json:"duration_in_seconds"`
	Codec           string  `json:"codec"`
	Bitrate         string  `json:"bitrate"`
	Track           Track   `json:"track"`
	Artist          Artist  `json:"artist"`
	Release         Release `json:"release"`
}

// Play is one server-issued playable unit. A play is immutable once issued;
// its ID is unique per issuance.
type Play struct {
	ID        string    `json:"id"`
	Station   Station   `json:"station"`
	AudioFile AudioFile `json:"audio_file"`
}

// PlacementResponse is the payload of a get-placement call.
type PlacementResponse struct {
	Placement Placement `json:"placement"`
	Stations  []Station `json:"stations"`
}

// PlayResponse is the payload of a create-play call.
type PlayResponse struct {
	Play Play `json:"play"`
}

// StartResponse is the payload of a play-start call.
type StartResponse struct {
	CanSkip bool `json:"can_skip"`
}

// ClientResponse is the payload of a create-client call.
type ClientResponse struct {
	ClientID string `json:"client_id"`
}
