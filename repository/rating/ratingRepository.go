package ratingrepo

import (
	"context"
	"database/sql"
)

// Recommendation is a top-rated, in-stock book for the user dashboard.
type Recommendation struct {
	BookID      int64   `json:"book_id"`
	Title       string  `json:"title"`
	Author      string  `json:"author"`
	AvgRating   float64 `json:"avg_rating"`
	RatingCount int64   `json:"rating_count"`
}

type Repo interface {
	Recommendations(ctx context.Context, limit int) ([]Recommendation, error)
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db} }

func (r *repo) Recommendations(ctx context.Context, limit int) ([]Recommendation, error) {
	const q = `
SELECT b.book_id, b.title, b.author,
       AVG(r.rating::float) AS avg_rating,
       COUNT(r.rating_id) AS rating_count
FROM books b
JOIN ratings r ON b.book_id = r.book_id
WHERE b.stock > 0
GROUP BY b.book_id, b.title, b.author
ORDER BY AVG(r.rating::float) DESC, COUNT(r.rating_id) DESC
LIMIT $1`
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Recommendation
	for rows.Next() {
		var rec Recommendation
		if err := rows.Scan(&rec.BookID, &rec.Title, &rec.Author, &rec.AvgRating, &rec.RatingCount); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
