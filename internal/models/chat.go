package models

// Chat — диалог покупатель/продавец по конкретному объявлению.
type Chat struct {
	ID            int64    `json:"id"`
	SellerID      int64    `json:"sellerId"`
	BuyerID       int64    `json:"buyerId"`
	CreatedAt     string   `json:"createdAt"`
	LastMessageAt string   `json:"lastMessageAt,omitempty"`
	LastMessage   *Message `json:"lastMessage,omitempty"`
}

// Message — сообщение в чате.
type Message struct {
	ID        int64  `json:"id"`
	ChatID    int64  `json:"chatId"`
	SenderID  int64  `json:"senderId"`
	Body      string `json:"body"`
	CreatedAt string `json:"createdAt"`
}

// ChatCreateRequest — тело POST /chats.
// ReceiverID опционален: бэкенд сам определяет продавца по объявлению.
type ChatCreateRequest struct {
	ProductID  int64  `json:"productId"`
	ReceiverID *int64 `json:"receiverId"`
}

// SendMessageRequest — тело POST /chats/{id}/messages.
type SendMessageRequest struct {
	Content string `json:"content"`
}
