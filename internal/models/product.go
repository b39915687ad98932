package models

// Product — объявление (товар) на площадке.
// Временные метки оставлены строками: формат бэкенда не зафиксирован
// контрактом, а клиенту они нужны только для отображения.
type Product struct {
	ID          int64    `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	Category    string   `json:"category"`
	SellerID    int64    `json:"sellerId"`
	ImageURLs   []string `json:"imageUrls"`
	CreatedAt   string   `json:"createdAt"`
}

// SearchRequest — тело POST /products/search.
type SearchRequest struct {
	Query    string `json:"query"`
	Category string `json:"category,omitempty"`
}

// ImageFile — одно изображение для multipart-загрузки.
type ImageFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// CreateProductInput — входные данные создания объявления
// (multipart-поля title/description/price/category + images[]).
type CreateProductInput struct {
	Title       string
	Description string
	Price       float64
	Category    string
	Images      []ImageFile
}

// Page — страничная обёртка ответов бэкенда (Spring-подобный формат).
type Page[T any] struct {
	Content       []T   `json:"content"`
	Number        int   `json:"number"`
	Size          int   `json:"size"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
}
