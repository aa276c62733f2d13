package borrowing

type CreateBorrowingReq struct {
	BookID   int64   `json:"book_id" validate:"required,gt=0"`
	Quantity int64   `json:"quantity" validate:"omitempty,gt=0"`
	Notes    *string `json:"notes"`
}

type ExtendReq struct {
	Days  int     `json:"days" validate:"omitempty,gt=0"`
	Notes *string `json:"notes"`
}

type ReturnRequestReq struct {
	Notes *string `json:"notes"`
}

type ApproveReturnReq struct {
	Fine  float64 `json:"fine" validate:"gte=0"`
	Notes *string `json:"notes"`
}

type RejectReturnReq struct {
	Notes *string `json:"notes"`
}
