package handler

// TransactionItem トランザクションアイテム
// @Description 台帳の1行。signed_amount は残高への増減（支出は負）
type TransactionItem struct {
	TransactionID string `json:"transaction_id" example:"txn_123"`
	UserID        string `json:"user_id" example:"user123"`
	Type          string `json:"type" example:"purchase"`
	CoinAmount    int64  `json:"coin_amount" example:"2200"`
	SignedAmount  int64  `json:"signed_amount" example:"2200"`
	RupeeAmount   string `json:"rupee_amount,omitempty" example:"100.00"`
	Status        string `json:"status" example:"completed"`
	Description   string `json:"description" example:"Popular"`
	ReferenceID   string `json:"reference_id,omitempty" example:"ord_123"`
	CreatedAt     string `json:"created_at" example:"2024-01-01T12:00:00Z"`
}

// Pagination ページ情報
// @Description ページ情報
type Pagination struct {
	Page       int  `json:"page" example:"1"`
	Limit      int  `json:"limit" example:"20"`
	Total      int  `json:"total" example:"42"`
	TotalPages int  `json:"total_pages" example:"3"`
	HasMore    bool `json:"has_more" example:"true"`
}

// TransactionHistoryResponse トランザクション履歴レスポンス
// @Description トランザクション履歴（新しい順）
type TransactionHistoryResponse struct {
	Transactions []TransactionItem `json:"transactions"`
	Pagination   Pagination        `json:"pagination"`
}
