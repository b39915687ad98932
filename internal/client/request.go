package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/studyswap/studyswap-go/internal/pkg/log"
	"github.com/studyswap/studyswap-go/internal/tokens"
)

// request описывает один логический вызов API.
type request struct {
	method string
	path   string // путь относительно BaseURL
	rawURL string // полный URL (медиа); имеет приоритет над path
	query  url.Values

	json       any       // JSON-тело; сериализуется один раз и переигрывается
	stream     io.Reader // одноразовое тело (multipart); retry невозможен
	streamType string    // Content-Type для stream

	accept string // по умолчанию application/json
	upload bool   // клиент с таймаутом загрузки

	out any     // назначение JSON-ответа; nil — тело не разбирается
	raw *[]byte // сырые байты ответа (медиа); взаимоисключим с out
}

// do исполняет авторизованный вызов по машине состояний:
//
//	Start -> (CheckExpiry) -> [MaybeRefresh] -> Send ->
//	(OK | Unauthorized -> [MaybeRefresh] -> RetryOnce | OtherError) -> Done|Failed
//
// Повтор после обновления токена — не более одного на логический вызов.
func (c *Client) do(ctx context.Context, r *request) error {
	const op = "client.request.do"

	lg := log.From(ctx)

	creds, err := c.store.Credentials(ctx)
	if err != nil {
		if errors.Is(err, tokens.ErrNoCredentials) {
			return fmt.Errorf("%s: %w", op, ErrUnauthenticated)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	access := creds.AccessToken

	// Шаг 1: превентивная проверка срока действия — обновить дешевле,
	// чем поймать гарантированный 401.
	if tokens.ExpiredWithin(access, c.margin) {
		lg.Debug("access_token_near_expiry",
			slog.String("op", op),
			slog.String("path", r.path),
		)

		fresh, err := c.refresh(ctx)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		access = fresh.AccessToken
	}

	var jsonBody []byte
	if r.json != nil {
		if jsonBody, err = json.Marshal(r.json); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	// Шаг 2: отправка с bearer-токеном.
	resp, err := c.send(ctx, r, access, jsonBody, true)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	// Шаг 3: реактивная проверка — сервер отверг токен по причине,
	// не видимой локальной инспекции (рассинхрон часов, отзыв).
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		drainClose(resp.Body)

		lg.Debug("request_unauthorized",
			slog.String("op", op),
			slog.Int("status", resp.StatusCode),
			slog.String("path", r.path),
		)

		fresh, err := c.refresh(ctx)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		if r.stream != nil {
			// Multipart-поток уже вычитан транспортом; автоматический
			// повтор отправил бы пустое тело. Токен обновлён — повторная
			// отправка за вызывающим.
			return fmt.Errorf("%s: %w", op, ErrRetryAfterRefresh)
		}

		// Пауза на дораскатку ротации токена на стороне бэкенда.
		if err := c.settleWait(ctx); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		retry, err := c.send(ctx, r, fresh.AccessToken, jsonBody, false)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		if retry.StatusCode == http.StatusUnauthorized || retry.StatusCode == http.StatusForbidden {
			drainClose(retry.Body)

			lg.Warn("request_unauthorized_after_refresh",
				slog.String("op", op),
				slog.Int("status", retry.StatusCode),
				slog.String("path", r.path),
			)

			// Терминально: и свежий токен отвергнут. Сессию чистим до того,
			// как ошибка дойдёт до вызывающего.
			_ = c.store.ClearCredentials(ctx)
			return fmt.Errorf("%s: %w", op, ErrSessionExpired)
		}

		return c.finish(op, retry, r)
	}

	// Шаги 4-5: прочие статусы и разбор тела.
	return c.finish(op, resp, r)
}

// send выполняет один HTTP-вызов. allowStream=false на повторе:
// одноразовое тело к этому моменту уже потреблено.
func (c *Client) send(ctx context.Context, r *request, access string, jsonBody []byte, allowStream bool) (*http.Response, error) {
	const op = "client.request.send"

	target := r.rawURL
	if target == "" {
		target = c.baseURL + r.path
	}
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}

	var (
		body        io.Reader
		contentType string
	)
	switch {
	case jsonBody != nil:
		body = bytes.NewReader(jsonBody)
		contentType = "application/json"
	case r.stream != nil && allowStream:
		body = r.stream
		contentType = r.streamType
	}

	req, err := http.NewRequestWithContext(ctx, r.method, target, body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	accept := r.accept
	if accept == "" {
		accept = "application/json"
	}
	req.Header.Set("Accept", accept)
	req.Header.Set("User-Agent", c.ua)
	req.Header.Set("Authorization", "Bearer "+access)
	if contentType != "" {
		// Для multipart сюда приходит boundary-aware значение от
		// multipart.Writer; JSON-заголовок на него не накладывается.
		req.Header.Set("Content-Type", contentType)
	}

	httpc := c.httpc
	if r.upload {
		httpc = c.uploadc
	}

	resp, err := httpc.Do(req)
	if err != nil {
		// Ответа нет — это транспортный сбой, не HTTP-ошибка.
		return nil, fmt.Errorf("%s: %w: %v", op, ErrNetwork, err)
	}

	return resp, nil
}

// finish закрывает состояние Done|Failed: не-2xx превращает в *HTTPError,
// успешное тело разбирает в r.out/r.raw. Пустое 200/204-тело — валидный
// успех (DELETE-эндпойнты отвечают без тела).
func (c *Client) finish(op string, resp *http.Response, r *request) error {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: %w: %v", op, ErrNetwork, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%s: %w", op, apiError(resp.StatusCode, body))
	}

	if r.raw != nil {
		*r.raw = body
		return nil
	}

	if r.out == nil || len(body) == 0 {
		return nil
	}

	if err := json.Unmarshal(body, r.out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}

	return nil
}

// postJSON — неавторизованный POST (login/register/refresh).
func (c *Client) postJSON(ctx context.Context, path string, in, out any) error {
	const op = "client.request.postJSON"

	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.ua)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w: %v", op, ErrNetwork, err)
	}

	return c.finish(op, resp, &request{out: out})
}

// settleWait выдерживает настроенную паузу, уважая отмену контекста.
func (c *Client) settleWait(ctx context.Context) error {
	if c.settle <= 0 {
		return nil
	}

	t := time.NewTimer(c.settle)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// drainClose дочитывает и закрывает тело, чтобы соединение вернулось в пул.
func drainClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 1<<20))
	_ = body.Close()
}
