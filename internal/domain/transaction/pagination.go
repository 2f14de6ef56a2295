package transaction

// PaginationCursor 1ページ分の位置情報（取得ごとに再計算され、変更されない）
type PaginationCursor struct {
	Page       int
	Limit      int
	Total      int
	TotalPages int
	HasMore    bool
}

// NewPaginationCursor ページ番号・件数・総件数からカーソルを作成
func NewPaginationCursor(page, limit, total int) PaginationCursor {
	if page < 1 {
		page = 1
	}
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return PaginationCursor{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
		HasMore:    page < totalPages,
	}
}

// Offset ページ番号と件数からオフセットを返す
func Offset(page, limit int) int {
	if page < 1 {
		return 0
	}
	return (page - 1) * limit
}
