package dto

// SetLikeDTO is the body of POST /likes/:likedType. Like is a pointer so a
// missing flag can be told apart from false.
type SetLikeDTO struct {
	Liked string `json:"liked" binding:"required"`
	Like  *bool  `json:"like" binding:"required"`
}

// CreateCommentDTO binds from JSON or, when files are attached, from a
// multipart form whose "attachments" parts are uploaded by the handler.
type CreateCommentDTO struct {
	ContentType   string `json:"contentType" form:"contentType"`
	ContentID     string `json:"contentId" form:"contentId"`
	Content       string `json:"content" form:"content" binding:"required"`
	ParentComment string `json:"parentComment" form:"parentComment"`
}

type UpdateCommentDTO struct {
	Content string `json:"content" binding:"required"`
}

type SubscribeDTO struct {
	ChannelID string `json:"channelId" binding:"required"`
}
