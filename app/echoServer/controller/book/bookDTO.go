package book

type BookReq struct {
	Title       string `json:"title" validate:"required"`
	Author      string `json:"author" validate:"required"`
	Publisher   string `json:"publisher"`
	PublishYear int    `json:"publish_year" validate:"omitempty,gte=0"`
	Stock       int64  `json:"stock" validate:"gte=0"`
	CategoryID  *int64 `json:"category_id"`
}
