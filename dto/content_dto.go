package dto

// CreateVideoDTO is bound from the multipart upload form next to the
// videoFile and thumbnail parts.
type CreateVideoDTO struct {
	Title       string  `form:"title" binding:"required"`
	Description string  `form:"description"`
	Duration    float64 `form:"duration" binding:"gte=0"`
	IsPublished *bool   `form:"isPublished"`
}

// CreatePostDTO is bound from a multipart form with an optional media part.
type CreatePostDTO struct {
	Title      string   `form:"title" binding:"required"`
	Content    string   `form:"content" binding:"required"`
	Tags       []string `form:"tags"`
	Visibility string   `form:"visibility"`
}

// UpdatePostDTO is bound from JSON or from a multipart form carrying a
// replacement media part. Empty fields are left unchanged.
type UpdatePostDTO struct {
	Title      string   `json:"title" form:"title"`
	Content    string   `json:"content" form:"content"`
	Tags       []string `json:"tags" form:"tags"`
	Visibility string   `json:"visibility" form:"visibility"`
}
