package dto

type TweetDTO struct {
	Content string `json:"content" binding:"required,max=280"`
}

type CommentDTO struct {
	Content string `json:"content" binding:"required"`
}
