package client

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/studyswap/studyswap-go/internal/models"
)

// Chats возвращает список диалогов пользователя (GET /chats).
func (c *Client) Chats(ctx context.Context, page, size int) ([]models.Chat, error) {
	const op = "client.chats.Chats"

	var out []models.Chat
	if err := c.do(ctx, &request{
		method: http.MethodGet,
		path:   "/chats",
		query:  pageQuery(page, size, defaultPageSize),
		out:    &out,
	}); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// ChatByID возвращает диалог (GET /chats/{id}).
func (c *Client) ChatByID(ctx context.Context, id int64) (*models.Chat, error) {
	const op = "client.chats.ChatByID"

	var out models.Chat
	if err := c.do(ctx, &request{
		method: http.MethodGet,
		path:   "/chats/" + strconv.FormatInt(id, 10),
		out:    &out,
	}); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &out, nil
}

// CreateChat создаёт диалог по объявлению (POST /chats).
// Получателя бэкенд определяет сам по продавцу объявления.
func (c *Client) CreateChat(ctx context.Context, productID int64) (*models.Chat, error) {
	const op = "client.chats.CreateChat"

	var out models.Chat
	if err := c.do(ctx, &request{
		method: http.MethodPost,
		path:   "/chats",
		json:   models.ChatCreateRequest{ProductID: productID},
		out:    &out,
	}); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &out, nil
}

// Messages возвращает историю диалога (GET /chats/{id}/messages).
// Бэкенд отдаёт страничную обёртку; наружу идёт только content.
func (c *Client) Messages(ctx context.Context, chatID int64, page, size int) ([]models.Message, error) {
	const op = "client.chats.Messages"

	var out models.Page[models.Message]
	if err := c.do(ctx, &request{
		method: http.MethodGet,
		path:   "/chats/" + strconv.FormatInt(chatID, 10) + "/messages",
		query:  pageQuery(page, size, defaultMessageSize),
		out:    &out,
	}); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if out.Content == nil {
		return []models.Message{}, nil
	}

	return out.Content, nil
}

// SendMessage отправляет сообщение (POST /chats/{id}/messages).
func (c *Client) SendMessage(ctx context.Context, chatID int64, content string) (*models.Message, error) {
	const op = "client.chats.SendMessage"

	var out models.Message
	if err := c.do(ctx, &request{
		method: http.MethodPost,
		path:   "/chats/" + strconv.FormatInt(chatID, 10) + "/messages",
		json:   models.SendMessageRequest{Content: content},
		out:    &out,
	}); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &out, nil
}
