package api

// errorBody サーバーのエラーレスポンス
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type tokenRequest struct {
	UserID string `json:"user_id"`
}

type tokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
	TokenType string `json:"token_type"`
}

type packageItem struct {
	PackageID  string `json:"package_id"`
	Name       string `json:"name"`
	CoinAmount int64  `json:"coin_amount"`
	BonusCoins int64  `json:"bonus_coins"`
	TotalCoins int64  `json:"total_coins"`
	RupeePrice string `json:"rupee_price"`
	IsPopular  bool   `json:"is_popular"`
}

type packagesResponse struct {
	Packages []packageItem `json:"packages"`
}

type balanceResponse struct {
	UserID     string `json:"user_id"`
	Balance    int64  `json:"balance"`
	RupeeValue string `json:"rupee_value"`
}

type transactionItem struct {
	TransactionID string `json:"transaction_id"`
	UserID        string `json:"user_id"`
	Type          string `json:"type"`
	CoinAmount    int64  `json:"coin_amount"`
	SignedAmount  int64  `json:"signed_amount"`
	RupeeAmount   string `json:"rupee_amount,omitempty"`
	Status        string `json:"status"`
	Description   string `json:"description"`
	ReferenceID   string `json:"reference_id,omitempty"`
	CreatedAt     string `json:"created_at"`
}

type paginationBody struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	HasMore    bool `json:"has_more"`
}

type transactionsResponse struct {
	Transactions []transactionItem `json:"transactions"`
	Pagination   paginationBody    `json:"pagination"`
}

type customerBody struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type purchaseRequest struct {
	PackageID string       `json:"package_id,omitempty"`
	Amount    string       `json:"amount,omitempty"`
	Customer  customerBody `json:"customer"`
}

type purchaseResponse struct {
	OrderID       string `json:"order_id"`
	Status        string `json:"status"`
	Coins         int64  `json:"coins"`
	Amount        string `json:"amount"`
	SnapToken     string `json:"snap_token,omitempty"`
	RedirectURL   string `json:"redirect_url,omitempty"`
	Message       string `json:"message,omitempty"`
	TransactionID string `json:"transaction_id,omitempty"`
}

type progressBody struct {
	Current int64 `json:"current"`
	Target  int64 `json:"target"`
}

type taskItem struct {
	TaskID      string        `json:"task_id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Reward      int64         `json:"reward"`
	Completed   bool          `json:"completed"`
	Progress    *progressBody `json:"progress,omitempty"`
}

type tasksResponse struct {
	Tasks []taskItem `json:"tasks"`
}
