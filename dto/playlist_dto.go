package dto

type CreatePlaylistDTO struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type UpdatePlaylistDTO struct {
	Name        string  `json:"name" binding:"required"`
	Description *string `json:"description,omitempty"`
}

type PlaylistVideoDTO struct {
	PlaylistID string `json:"playlistId" binding:"required"`
	VideoID    string `json:"videoId" binding:"required"`
}
