package dto

type PublishVideoDTO struct {
	Title       string  `form:"title" binding:"required,min=3"`
	Description string  `form:"description"`
	Duration    float64 `form:"duration" binding:"gte=0"`
}

type UpdateVideoDTO struct {
	Title       *string `form:"title,omitempty"`
	Description *string `form:"description,omitempty"`
}
