package client

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"path"
	"strings"
)

// MediaURL превращает путь изображения из ответа бэкенда в полный URL
// эндпойнта /media/{filename}. Абсолютные URL возвращаются как есть.
func (c *Client) MediaURL(imageURL string) string {
	if strings.HasPrefix(imageURL, "http") {
		return imageURL
	}

	return c.mediaURL + "/media/" + path.Base(imageURL)
}

// InlineImage скачивает изображение с bearer-авторизацией через тот же
// исполнитель запросов (с тем же refresh-протоколом) и возвращает его
// data-URL для встраивания. Абсолютные URL не скачиваются.
func (c *Client) InlineImage(ctx context.Context, imageURL string) (string, error) {
	const op = "client.media.InlineImage"

	if strings.HasPrefix(imageURL, "http") {
		return imageURL, nil
	}

	var body []byte
	if err := c.do(ctx, &request{
		method: http.MethodGet,
		rawURL: c.MediaURL(imageURL),
		accept: "image/*",
		raw:    &body,
	}); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	contentType := http.DetectContentType(body)

	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(body), nil
}
