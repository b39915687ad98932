package tokens

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims — клеймы access-токена, которые нужны клиенту.
// Производные данные: пересчитываются из токена по требованию, не хранятся.
type Claims struct {
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Decode извлекает клеймы из access-токена без проверки подписи.
// Ключ подписи есть только у бэкенда; клиенту нужен лишь срок действия.
func Decode(token string) (*Claims, error) {
	const op = "tokens.inspect.Decode"

	var rc jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &rc); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if rc.ExpiresAt == nil {
		return nil, fmt.Errorf("%s: token has no exp claim", op)
	}

	c := &Claims{
		Subject:   rc.Subject,
		ExpiresAt: rc.ExpiresAt.Time,
	}
	if rc.IssuedAt != nil {
		c.IssuedAt = rc.IssuedAt.Time
	}

	return c, nil
}

// ExpiredWithin сообщает, истёк ли токен или истечёт в пределах margin.
// Любая ошибка разбора считается истечением (fail-safe): превентивное
// обновление дешевле гарантированного 401 на живом запросе.
func ExpiredWithin(token string, margin time.Duration) bool {
	c, err := Decode(token)
	if err != nil {
		return true
	}

	return !time.Now().Before(c.ExpiresAt.Add(-margin))
}
