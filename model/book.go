// model/book.go
package model

type Book struct {
	ID           int64   `json:"book_id"`
	Title        string  `json:"title"`
	Author       string  `json:"author"`
	Publisher    string  `json:"publisher"`
	PublishYear  int     `json:"publish_year"`
	Stock        int64   `json:"stock"`
	CategoryID   *int64  `json:"category_id,omitempty"`
	CategoryName *string `json:"category_name,omitempty"`

	// number of copies out on active loans, only set on paginated listings
	BorrowedCount int64 `json:"borrowed_count,omitempty"`
}

type Category struct {
	ID        int64  `json:"category_id"`
	Name      string `json:"category_name"`
	BookCount int64  `json:"book_count,omitempty"`
}
