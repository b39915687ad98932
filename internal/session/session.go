// session — процессное состояние аутентификации поверх хранилища токенов
// и API-клиента: вход/выход, восстановление сессии на старте и ленивое
// обновление профиля.
//
// Принципы:
//   - сразу после входа/восстановления выставляется заглушка профиля, а
//     настоящий профиль подтягивается асинхронно: немедленный сетевой вызов
//     на старте мог бы запустить ротацию токена и гонку с ней;
//   - logout безопасен при идущем обновлении токенов: он инвалидирует
//     поколение сессии у клиента, и результат такого обновления
//     отбрасывается, а не воскрешает очищенные токены.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/studyswap/studyswap-go/internal/client"
	"github.com/studyswap/studyswap-go/internal/models"
	"github.com/studyswap/studyswap-go/internal/pkg/log"
	"github.com/studyswap/studyswap-go/internal/pkg/redact"
	"github.com/studyswap/studyswap-go/internal/tokens"
)

var (
	// ErrLoginFailed — бэкенд не подтвердил вход (нет пары токенов в ответе).
	ErrLoginFailed = errors.New("login failed")

	// ErrRegistrationFailed — бэкенд не подтвердил регистрацию.
	ErrRegistrationFailed = errors.New("registration failed")
)

// Session — состояние аутентификации процесса.
// Все методы потокобезопасны.
type Session struct {
	api   *client.Client
	store tokens.Store

	mu   sync.Mutex
	user *models.User

	// wg отслеживает фоновые обновления профиля (для тестов и shutdown).
	wg sync.WaitGroup
}

// New создаёт сессию поверх клиента.
func New(api *client.Client) *Session {
	return &Session{
		api:   api,
		store: api.Store(),
	}
}

// IsAuthenticated сообщает, есть ли активная сессия.
func (s *Session) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user != nil
}

// Current возвращает профиль текущего пользователя (возможно, заглушку).
func (s *Session) Current() (models.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.user == nil {
		return models.User{}, false
	}
	return *s.user, true
}

// Login выполняет вход: персистит пару токенов, выставляет заглушку профиля
// и асинхронно подтягивает настоящий профиль. Ошибка фоновой загрузки
// профиля входу не мешает.
func (s *Session) Login(ctx context.Context, email, password string) error {
	const op = "session.Login"

	resp, err := s.api.Login(ctx, email, password)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if resp.AccessToken == "" || resp.RefreshToken == "" {
		log.WithOp(ctx, op).Warn("login_rejected",
			slog.String("email", redact.Email(email)),
			slog.String("flag", resp.IsLoginSuccessful),
		)
		return fmt.Errorf("%s: %w", op, ErrLoginFailed)
	}

	if err := s.store.SaveCredentials(ctx, &tokens.Credentials{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
	}); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.setUser(models.PlaceholderUser(email))
	s.fetchProfileAsync(ctx)

	log.WithOp(ctx, op).Info("login_ok", slog.String("email", redact.Email(email)))

	return nil
}

// Register регистрирует пользователя и сразу открывает сессию.
func (s *Session) Register(ctx context.Context, in models.RegisterRequest) error {
	const op = "session.Register"

	resp, err := s.api.Register(ctx, in)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if resp.AccessToken == "" || resp.RefreshToken == "" {
		if resp.ErrorMessage != "" {
			return fmt.Errorf("%s: %w: %s", op, ErrRegistrationFailed, resp.ErrorMessage)
		}
		return fmt.Errorf("%s: %w", op, ErrRegistrationFailed)
	}

	if err := s.store.SaveCredentials(ctx, &tokens.Credentials{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
	}); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.setUser(models.User{
		Email:      in.Email,
		FirstName:  in.FirstName,
		LastName:   in.LastName,
		University: in.University,
	})
	s.fetchProfileAsync(ctx)

	return nil
}

// Logout завершает сессию. Порядок важен: сначала инвалидируется поколение
// у клиента (идущее обновление отбросит свой результат), затем чистится
// хранилище. Повторный вызов безопасен.
func (s *Session) Logout(ctx context.Context) error {
	const op = "session.Logout"

	s.setUserNil()
	s.api.InvalidateSession()

	if err := s.store.ClearCredentials(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	log.WithOp(ctx, op).Info("logout_ok")
	return nil
}

// Restore восстанавливает сессию на старте: при наличии пары токенов сессия
// оптимистично считается активной с заглушкой профиля — без сетевого вызова,
// который заставил бы ротацию токена на каждом холодном старте. Иначе
// зачищается возможное частичное состояние.
func (s *Session) Restore(ctx context.Context) error {
	const op = "session.Restore"

	lg := log.WithOp(ctx, op)

	if _, err := s.store.Credentials(ctx); err != nil {
		if !errors.Is(err, tokens.ErrNoCredentials) {
			lg.Warn("restore_store_unreadable", slog.String("err", err.Error()))
		}

		s.setUserNil()
		if err := s.store.ClearCredentials(ctx); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		lg.Debug("restore_unauthenticated")
		return nil
	}

	s.setUser(models.PlaceholderUser(""))
	lg.Info("restore_authenticated")
	return nil
}

// RefreshProfile подтягивает профиль с бэкенда. Истёкшая сессия приводит к
// logout; прочие ошибки состояние не меняют.
func (s *Session) RefreshProfile(ctx context.Context) error {
	const op = "session.RefreshProfile"

	u, err := s.api.Profile(ctx)
	if err != nil {
		if errors.Is(err, client.ErrSessionExpired) || errors.Is(err, client.ErrUnauthenticated) {
			_ = s.Logout(ctx)
			return fmt.Errorf("%s: %w", op, err)
		}

		log.WithOp(ctx, op).Warn("profile_refresh_failed", slog.String("err", err.Error()))
		return fmt.Errorf("%s: %w", op, err)
	}

	s.setUser(*u)
	return nil
}

// Wait дожидается фоновых загрузок профиля (использует shutdown и тесты).
func (s *Session) Wait() {
	s.wg.Wait()
}

func (s *Session) fetchProfileAsync(ctx context.Context) {
	// Фон живёт дольше инициирующего запроса.
	ctx = context.WithoutCancel(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		_ = s.RefreshProfile(ctx)
	}()
}

func (s *Session) setUser(u models.User) {
	s.mu.Lock()
	s.user = &u
	s.mu.Unlock()
}

func (s *Session) setUserNil() {
	s.mu.Lock()
	s.user = nil
	s.mu.Unlock()
}
