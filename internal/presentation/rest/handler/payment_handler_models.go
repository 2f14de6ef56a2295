package handler

// CustomerBody 購入者情報
// @Description 決済画面に渡す購入者情報
type CustomerBody struct {
	Name  string `json:"name" validate:"max=100" example:"Asha Rao"`
	Email string `json:"email" validate:"omitempty,email,max=255" example:"asha@example.com"`
	Phone string `json:"phone" validate:"max=32" example:"+919800000000"`
}

// PurchaseRequest 購入リクエスト
// @Description package_id か amount（ルピー、整数）のどちらか一方を指定
type PurchaseRequest struct {
	PackageID string       `json:"package_id,omitempty" validate:"max=64" example:"popular"`
	Amount    string       `json:"amount,omitempty" example:"250.00"`
	Customer  CustomerBody `json:"customer"`
}

// PurchaseResponse 購入状態レスポンス
// @Description 購入の状態（pending/settled/declined/cancelled/expired）
type PurchaseResponse struct {
	OrderID       string `json:"order_id" example:"ord_123"`
	Status        string `json:"status" example:"pending"`
	Coins         int64  `json:"coins" example:"2200"`
	Amount        string `json:"amount" example:"100.00"`
	SnapToken     string `json:"snap_token,omitempty" example:"66e4fa55-fdac-4ef9-91b5-733b97d1b862"`
	RedirectURL   string `json:"redirect_url,omitempty" example:"https://app.sandbox.midtrans.com/snap/v3/redirection/66e4fa55"`
	Message       string `json:"message,omitempty"`
	TransactionID string `json:"transaction_id,omitempty" example:"txn_123"`
}

// PaymentNotification ゲートウェイからの決済通知
// @Description ゲートウェイのHTTP通知ペイロード
type PaymentNotification struct {
	OrderID           string `json:"order_id" validate:"required"`
	StatusCode        string `json:"status_code" validate:"required"`
	GrossAmount       string `json:"gross_amount" validate:"required"`
	SignatureKey      string `json:"signature_key" validate:"required"`
	TransactionStatus string `json:"transaction_status"`
	FraudStatus       string `json:"fraud_status"`
	TransactionID     string `json:"transaction_id"`
}

// NotificationAck 通知受領レスポンス
type NotificationAck struct {
	Status string `json:"status" example:"ok"`
}

// ExpireResponse 期限切れ処理の結果
type ExpireResponse struct {
	Expired int `json:"expired" example:"3"`
}
