package client

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrUnauthenticated — локальной пары токенов нет; вызов невозможен
	// без входа. UI-слой ведёт пользователя на экран логина.
	ErrUnauthenticated = errors.New("not authenticated")

	// ErrSessionExpired — refresh-токен отвергнут бэкендом либо повтор
	// запроса после обновления снова получил 401/403. К моменту, когда
	// ошибка доходит до вызывающего, локальные токены уже очищены:
	// UI может сразу уводить на вход без собственной зачистки.
	ErrSessionExpired = errors.New("session expired")

	// ErrRetryAfterRefresh — одноразовое (multipart) тело нельзя
	// переотправить автоматически. Токен уже обновлён; вызывающий
	// должен повторить операцию сам.
	ErrRetryAfterRefresh = errors.New("token refreshed, resubmit request")

	// ErrNetwork — транспортный сбой, ответ не получен. Отличается от
	// HTTP-ошибок, чтобы UI показывал «проверьте соединение», а не
	// «неверный запрос».
	ErrNetwork = errors.New("network failure")
)

// HTTPError — любой прочий не-2xx ответ бэкенда.
// Message берётся из поля message JSON-тела ошибки, иначе "HTTP <status>".
type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http %d: %s", e.Status, e.Message)
}

// apiError строит *HTTPError из статуса и тела ответа.
// Тело ошибки — внешние данные: разбираем терпимо, без строгой схемы.
func apiError(status int, body []byte) *HTTPError {
	var payload struct {
		Message string `json:"message"`
	}

	if len(body) > 0 {
		_ = json.Unmarshal(body, &payload)
	}

	if payload.Message == "" {
		payload.Message = fmt.Sprintf("HTTP %d", status)
	}

	return &HTTPError{Status: status, Message: payload.Message}
}
