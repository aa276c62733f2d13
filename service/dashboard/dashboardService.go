package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/Zedts/backend-digital-library/model"
	brepo "github.com/Zedts/backend-digital-library/repository/borrowing"
	ratingrepo "github.com/Zedts/backend-digital-library/repository/rating"
)

const (
	trendWindowDays     = 7
	recentActivityLimit = 10
	newUserWindowDays   = 7
	recommendationLimit = 3
)

type Borrowings interface {
	Stats(ctx context.Context, now time.Time) (*brepo.StatusCounts, error)
	CountByStatus(ctx context.Context, status model.BorrowStatus) (int64, error)
	CountOverdue(ctx context.Context, now time.Time) (int64, error)
	CountDueToday(ctx context.Context, now time.Time) (int64, error)
	CountDueTodayActive(ctx context.Context, now time.Time) (int64, error)
	CountActiveBefore(ctx context.Context, now time.Time) (int64, error)
	ActivityByDay(ctx context.Context, since time.Time) ([]brepo.TrendRow, error)
	RecentActivities(ctx context.Context, limit int) ([]brepo.ActivityRow, error)
	ListUserActive(ctx context.Context, userID int64) ([]model.Borrowing, error)
	ListUserPending(ctx context.Context, userID int64) ([]model.Borrowing, error)
	ListUserHistory(ctx context.Context, userID int64) ([]brepo.HistoryRow, error)
}

type Books interface {
	CountAll(ctx context.Context) (int64, error)
}

type Users interface {
	CountCreatedSince(ctx context.Context, since time.Time) (int64, error)
}

type Ratings interface {
	Recommendations(ctx context.Context, limit int) ([]ratingrepo.Recommendation, error)
}

// dto

type StatCard struct {
	Icon        string `json:"icon"`
	Number      string `json:"number"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

type Activity struct {
	User   string `json:"user"`
	Book   string `json:"book"`
	Action string `json:"action"`
	Date   string `json:"date"`
	Status string `json:"status"`
}

type TrendPoint struct {
	Date     string `json:"date"`
	Requests int64  `json:"requests"`
	Borrows  int64  `json:"borrows"`
	Returns  int64  `json:"returns"`
}

type OverviewSlice struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

type SystemOverview struct {
	OverdueBooksCount     int64           `json:"overdueBooksCount"`
	DueTodayCount         int64           `json:"dueTodayCount"`
	NewUsersThisWeekCount int64           `json:"newUsersThisWeekCount"`
	ChartData             []OverviewSlice `json:"chartData"`
}

type AdminDashboard struct {
	Stats            []StatCard     `json:"stats"`
	RecentActivities []Activity     `json:"recentActivities"`
	ActivityTrends   []TrendPoint   `json:"activityTrends"`
	SystemOverview   SystemOverview `json:"systemOverview"`
}

type UserDashboard struct {
	Stats            []StatCard                  `json:"stats"`
	ActiveBorrowings []model.Borrowing           `json:"activeBorrowings"`
	PendingRequests  []model.Borrowing           `json:"pendingRequests"`
	History          []brepo.HistoryRow          `json:"history"`
	Recommendations  []ratingrepo.Recommendation `json:"recommendations"`
}

type Service interface {
	AdminDashboard(ctx context.Context) (*AdminDashboard, error)
	UserDashboard(ctx context.Context, userID int64) (*UserDashboard, error)
	BorrowingStats(ctx context.Context) (*brepo.StatusCounts, error)
	ActivityTrends(ctx context.Context) ([]TrendPoint, error)
}

type service struct {
	br      Borrowings
	books   Books
	users   Users
	ratings Ratings
	now     func() time.Time
}

func New(br Borrowings, books Books, users Users, ratings Ratings) Service {
	return &service{br: br, books: books, users: users, ratings: ratings, now: time.Now}
}

func (s *service) today() time.Time {
	n := s.now()
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, time.UTC)
}

func (s *service) BorrowingStats(ctx context.Context) (*brepo.StatusCounts, error) {
	return s.br.Stats(ctx, s.now())
}

func (s *service) AdminDashboard(ctx context.Context) (*AdminDashboard, error) {
	now := s.now()

	totalBooks, err := s.books.CountAll(ctx)
	if err != nil {
		return nil, err
	}
	active, err := s.br.CountByStatus(ctx, model.StatusBorrowed)
	if err != nil {
		return nil, err
	}
	pending, err := s.br.CountByStatus(ctx, model.StatusPending)
	if err != nil {
		return nil, err
	}
	overdue, err := s.br.CountOverdue(ctx, now)
	if err != nil {
		return nil, err
	}
	dueToday, err := s.br.CountDueToday(ctx, now)
	if err != nil {
		return nil, err
	}
	newUsers, err := s.users.CountCreatedSince(ctx, now.AddDate(0, 0, -newUserWindowDays))
	if err != nil {
		return nil, err
	}

	activities, err := s.recentActivities(ctx, now)
	if err != nil {
		return nil, err
	}
	trends, err := s.ActivityTrends(ctx)
	if err != nil {
		return nil, err
	}
	chart, err := s.overviewChart(ctx, now)
	if err != nil {
		return nil, err
	}

	return &AdminDashboard{
		Stats: []StatCard{
			{Icon: "FaBook", Number: fmt.Sprint(totalBooks), Label: "Total Books", Description: "Books in library"},
			{Icon: "FaBookOpen", Number: fmt.Sprint(active), Label: "Active Borrows", Description: "Currently borrowed books"},
			{Icon: "FaClock", Number: fmt.Sprint(pending), Label: "Pending Requests", Description: "Awaiting approval"},
		},
		RecentActivities: activities,
		ActivityTrends:   trends,
		SystemOverview: SystemOverview{
			OverdueBooksCount:     overdue,
			DueTodayCount:         dueToday,
			NewUsersThisWeekCount: newUsers,
			ChartData:             chart,
		},
	}, nil
}

func (s *service) UserDashboard(ctx context.Context, userID int64) (*UserDashboard, error) {
	now := s.now()

	active, err := s.br.ListUserActive(ctx, userID)
	if err != nil {
		return nil, err
	}
	pending, err := s.br.ListUserPending(ctx, userID)
	if err != nil {
		return nil, err
	}
	history, err := s.br.ListUserHistory(ctx, userID)
	if err != nil {
		return nil, err
	}
	recs, err := s.ratings.Recommendations(ctx, recommendationLimit)
	if err != nil {
		return nil, err
	}
	for i := range active {
		active[i].Decorate(now)
	}

	return &UserDashboard{
		Stats: []StatCard{
			{Icon: "FaBookOpen", Number: fmt.Sprint(len(active)), Label: "My Active Borrows", Description: "Books currently borrowed"},
			{Icon: "FaClock", Number: fmt.Sprint(len(pending)), Label: "Pending Requests", Description: "Awaiting approval"},
		},
		ActiveBorrowings: active,
		PendingRequests:  pending,
		History:          history,
		Recommendations:  recs,
	}, nil
}

// ActivityTrends returns one bucket per day over the trailing window, always
// exactly trendWindowDays entries ordered oldest to newest, zero-filled for
// days with no events.
func (s *service) ActivityTrends(ctx context.Context) ([]TrendPoint, error) {
	today := s.today()
	since := today.AddDate(0, 0, -(trendWindowDays - 1))

	rows, err := s.br.ActivityByDay(ctx, since)
	if err != nil {
		return nil, err
	}

	byDay := make(map[string]brepo.TrendRow, len(rows))
	for _, row := range rows {
		byDay[row.Day.Format("2006-01-02")] = row
	}

	out := make([]TrendPoint, 0, trendWindowDays)
	for i := 0; i < trendWindowDays; i++ {
		day := since.AddDate(0, 0, i)
		p := TrendPoint{Date: day.Format("Mon")}
		if row, ok := byDay[day.Format("2006-01-02")]; ok {
			p.Requests = row.Requests
			p.Borrows = row.Borrows
			p.Returns = row.Returns
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *service) recentActivities(ctx context.Context, now time.Time) ([]Activity, error) {
	rows, err := s.br.RecentActivities(ctx, recentActivityLimit)
	if err != nil {
		return nil, err
	}

	out := make([]Activity, 0, len(rows))
	for _, row := range rows {
		action, status := "borrowed", string(row.Status)
		eventDate := row.BorrowDate
		switch {
		case row.ReturnDate != nil:
			action, status = "returned", "returned"
			eventDate = *row.ReturnDate
		case row.Status == model.StatusPending:
			action, status = "requested", "pending"
		}
		out = append(out, Activity{
			User:   row.UserName,
			Book:   row.BookTitle,
			Action: action,
			Date:   timeAgo(eventDate, now),
			Status: status,
		})
	}
	return out, nil
}

func (s *service) overviewChart(ctx context.Context, now time.Time) ([]OverviewSlice, error) {
	overdue, err := s.br.CountOverdue(ctx, now)
	if err != nil {
		return nil, err
	}
	dueToday, err := s.br.CountDueTodayActive(ctx, now)
	if err != nil {
		return nil, err
	}
	active, err := s.br.CountActiveBefore(ctx, now)
	if err != nil {
		return nil, err
	}
	pending, err := s.br.CountByStatus(ctx, model.StatusPending)
	if err != nil {
		return nil, err
	}
	return []OverviewSlice{
		{Status: "Overdue", Count: overdue},
		{Status: "Due Today", Count: dueToday},
		{Status: "Active", Count: active},
		{Status: "Pending", Count: pending},
	}, nil
}

func timeAgo(at, now time.Time) string {
	days := int(now.Sub(at).Hours() / 24)
	switch {
	case days <= 1:
		return "1 day ago"
	case days < 7:
		return fmt.Sprintf("%d days ago", days)
	default:
		return at.Format("1/2/2006")
	}
}
