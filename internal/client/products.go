package client

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"

	"github.com/studyswap/studyswap-go/internal/models"
)

// Дефолты пагинации бэкенда.
const (
	defaultPageSize    = 20
	defaultMessageSize = 50
)

// pageQuery собирает query-параметры пагинации, подставляя дефолты
// вместо отрицательных значений.
func pageQuery(page, size, defSize int) url.Values {
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = defSize
	}

	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("size", strconv.Itoa(size))
	return q
}

// Products возвращает страницу ленты объявлений (GET /products).
func (c *Client) Products(ctx context.Context, page, size int) (*models.Page[models.Product], error) {
	const op = "client.products.Products"

	var out models.Page[models.Product]
	if err := c.do(ctx, &request{
		method: http.MethodGet,
		path:   "/products",
		query:  pageQuery(page, size, defaultPageSize),
		out:    &out,
	}); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &out, nil
}

// OwnProducts возвращает страницу собственных объявлений
// (GET /products/ownproducts).
func (c *Client) OwnProducts(ctx context.Context, page, size int) (*models.Page[models.Product], error) {
	const op = "client.products.OwnProducts"

	var out models.Page[models.Product]
	if err := c.do(ctx, &request{
		method: http.MethodGet,
		path:   "/products/ownproducts",
		query:  pageQuery(page, size, defaultPageSize),
		out:    &out,
	}); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &out, nil
}

// SearchProducts выполняет поиск (POST /products/search).
func (c *Client) SearchProducts(ctx context.Context, in models.SearchRequest, page, size int) (*models.Page[models.Product], error) {
	const op = "client.products.SearchProducts"

	var out models.Page[models.Product]
	if err := c.do(ctx, &request{
		method: http.MethodPost,
		path:   "/products/search",
		query:  pageQuery(page, size, defaultPageSize),
		json:   in,
		out:    &out,
	}); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &out, nil
}

// ProductByID возвращает объявление (GET /products/{id}).
func (c *Client) ProductByID(ctx context.Context, id int64) (*models.Product, error) {
	const op = "client.products.ProductByID"

	var out models.Product
	if err := c.do(ctx, &request{
		method: http.MethodGet,
		path:   "/products/" + strconv.FormatInt(id, 10),
		out:    &out,
	}); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &out, nil
}

// DeleteProduct удаляет объявление (DELETE /products/{id}).
// Бэкенд отвечает пустым телом — это успех, а не ошибка разбора.
func (c *Client) DeleteProduct(ctx context.Context, id int64) error {
	const op = "client.products.DeleteProduct"

	if err := c.do(ctx, &request{
		method: http.MethodDelete,
		path:   "/products/" + strconv.FormatInt(id, 10),
	}); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// CreateProduct создаёт объявление multipart-запросом (POST /products):
// поля title/description/price/category плюс файлы images[].
//
// Тело стримится через io.Pipe и потому одноразово: если первый запрос
// получает 401/403, токен обновляется, но вызов завершается
// ErrRetryAfterRefresh — повторную отправку делает вызывающий.
func (c *Client) CreateProduct(ctx context.Context, in models.CreateProductInput) (*models.Product, error) {
	const op = "client.products.CreateProduct"

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		err := writeProductForm(mw, in)
		if cerr := mw.Close(); err == nil {
			err = cerr
		}
		pw.CloseWithError(err)
	}()

	var out models.Product
	if err := c.do(ctx, &request{
		method:     http.MethodPost,
		path:       "/products",
		stream:     pr,
		streamType: mw.FormDataContentType(),
		upload:     true,
		out:        &out,
	}); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &out, nil
}

// writeProductForm пишет multipart-поля объявления.
func writeProductForm(mw *multipart.Writer, in models.CreateProductInput) error {
	fields := map[string]string{
		"title":       in.Title,
		"description": in.Description,
		"price":       strconv.FormatFloat(in.Price, 'f', 2, 64),
		"category":    in.Category,
	}
	for _, name := range []string{"title", "description", "price", "category"} {
		if err := mw.WriteField(name, fields[name]); err != nil {
			return err
		}
	}

	for i, img := range in.Images {
		name := img.Name
		if name == "" {
			name = fmt.Sprintf("image_%d.jpg", i)
		}
		contentType := img.ContentType
		if contentType == "" {
			contentType = "image/jpeg"
		}

		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition",
			fmt.Sprintf(`form-data; name="images"; filename="%s"`, escapeQuotes(name)))
		h.Set("Content-Type", contentType)

		part, err := mw.CreatePart(h)
		if err != nil {
			return err
		}
		if _, err := part.Write(img.Data); err != nil {
			return err
		}
	}

	return nil
}

var quoteEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
