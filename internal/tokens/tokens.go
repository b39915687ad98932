// tokens — локальное хранение учётных данных сессии и инспекция access-токена.
//
// Основные аспекты:
//   - Пара access+refresh хранится и заменяется только целиком: хранилище
//     никогда не содержит access-токен одной пары и refresh-токен другой.
//   - Идентификатор устройства генерируется один раз на установку и живёт
//     дольше любой пары токенов (переживает ClearCredentials): бэкенд
//     привязывает refresh-токены к устройству.
//   - Реализации Store обязаны быть потокобезопасными: пишут в хранилище
//     координатор обновления и login/logout, читают — все запросы.
package tokens

import (
	"context"
	"errors"
)

var (
	// ErrNoCredentials — локальной пары токенов нет (пользователь не входил
	// или сессия была очищена).
	ErrNoCredentials = errors.New("no stored credentials")

	// ErrIncompletePair — попытка сохранить пару, где заполнен только один
	// токен. Такое состояние запрещено инвариантом хранилища.
	ErrIncompletePair = errors.New("incomplete credential pair")

	// ErrCorruptStore — файл токенов не читается/не расшифровывается.
	ErrCorruptStore = errors.New("token store corrupted")
)

// Credentials — пара токенов сессии. Оба поля всегда непустые.
type Credentials struct {
	AccessToken  string
	RefreshToken string
}

// Store — контракт персистентного хранилища токенов.
type Store interface {
	// Credentials возвращает сохранённую пару либо ErrNoCredentials.
	Credentials(ctx context.Context) (*Credentials, error)
	// SaveCredentials атомарно заменяет пару целиком.
	// Пара с пустым токеном отклоняется (ErrIncompletePair).
	SaveCredentials(ctx context.Context, creds *Credentials) error
	// ClearCredentials удаляет пару; идемпотентна, device ID не трогает.
	ClearCredentials(ctx context.Context) error
	// DeviceID возвращает идентификатор устройства, лениво генерируя
	// и сохраняя его при первом обращении.
	DeviceID(ctx context.Context) (string, error)
}
