package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/studyswap/studyswap-go/internal/models"
	"github.com/studyswap/studyswap-go/internal/pkg/log"
	"github.com/studyswap/studyswap-go/internal/pkg/redact"
	"github.com/studyswap/studyswap-go/internal/tokens"
)

// refresh координирует обновление пары токенов.
//
// Протокол входа: все конкурентные вызовы схлопываются в один сетевой
// POST /auth/refresh (singleflight); каждый ожидающий получает общий
// результат — новую пару либо общую ошибку. Новая пара записывается в
// Store до того, как хоть один ожидающий увидит результат.
func (c *Client) refresh(ctx context.Context) (*tokens.Credentials, error) {
	const op = "client.refresh.refresh"

	gen := c.generation()

	v, err, _ := c.flight.Do("refresh", func() (any, error) {
		return c.doRefresh(ctx, gen)
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return v.(*tokens.Credentials), nil
}

// RefreshTokens принудительно обновляет пару токенов, ожидая уже идущее
// обновление вместо запуска второго.
func (c *Client) RefreshTokens(ctx context.Context) (*tokens.Credentials, error) {
	return c.refresh(ctx)
}

// InvalidateSession инкрементирует поколение сессии: обновление, начатое до
// вызова, отбросит свой результат вместо записи в Store. Вызывается logout-ом
// перед очисткой токенов.
func (c *Client) InvalidateSession() {
	c.genMu.Lock()
	c.gen++
	c.genMu.Unlock()
}

func (c *Client) generation() uint64 {
	c.genMu.Lock()
	defer c.genMu.Unlock()
	return c.gen
}

// doRefresh — единственный исполнитель сетевого обновления.
// Классификация исходов:
//   - 401/403 от /auth/refresh — refresh-токен недействителен: терминально,
//     пара очищается, наружу ErrSessionExpired;
//   - ответ без полной пары токенов — приравнивается к отказу бэкенда;
//   - транспортный сбой или прочий статус — ретраябельно, пара не трогается;
//   - logout во время вызова — результат устаревшего поколения отбрасывается.
func (c *Client) doRefresh(ctx context.Context, gen uint64) (*tokens.Credentials, error) {
	const op = "client.refresh.doRefresh"

	lg := log.From(ctx)

	// Обновление доводится до конца, даже если инициирующий запрос отменён:
	// его результат разделяют все ожидающие.
	ctx = context.WithoutCancel(ctx)

	creds, err := c.store.Credentials(ctx)
	if err != nil {
		if errors.Is(err, tokens.ErrNoCredentials) {
			return nil, fmt.Errorf("%s: %w", op, ErrUnauthenticated)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	deviceID, err := c.store.DeviceID(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	lg.Debug("token_refresh_start",
		slog.String("op", op),
		slog.String("refresh_token", redact.TokenPreview(creds.RefreshToken)),
		slog.String("device_id", deviceID),
	)

	var out models.RefreshResponse
	if err := c.postJSON(ctx, "/auth/refresh", models.RefreshRequest{
		RefreshToken: creds.RefreshToken,
		DeviceID:     deviceID,
	}, &out); err != nil {
		var httpErr *HTTPError
		if errors.As(err, &httpErr) &&
			(httpErr.Status == http.StatusUnauthorized || httpErr.Status == http.StatusForbidden) {
			lg.Warn("token_refresh_rejected",
				slog.String("op", op),
				slog.Int("status", httpErr.Status),
				slog.String("message", httpErr.Message),
			)
			_ = c.store.ClearCredentials(ctx)
			return nil, fmt.Errorf("%s: %w", op, ErrSessionExpired)
		}

		lg.Error("token_refresh_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if out.AccessToken == "" || out.RefreshToken == "" {
		lg.Warn("token_refresh_incomplete_pair", slog.String("op", op))
		_ = c.store.ClearCredentials(ctx)
		return nil, fmt.Errorf("%s: %w", op, ErrSessionExpired)
	}

	fresh := &tokens.Credentials{
		AccessToken:  out.AccessToken,
		RefreshToken: out.RefreshToken,
	}

	// Проверка поколения и запись пары — одна критическая секция с
	// InvalidateSession: результат, пережитый logout-ом, не воскрешает сессию.
	c.genMu.Lock()
	if c.gen != gen {
		c.genMu.Unlock()
		lg.Warn("token_refresh_stale_generation", slog.String("op", op))
		return nil, fmt.Errorf("%s: %w", op, ErrSessionExpired)
	}
	err = c.store.SaveCredentials(ctx, fresh)
	c.genMu.Unlock()

	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	lg.Debug("token_refresh_ok",
		slog.String("op", op),
		slog.String("refresh_token", redact.TokenPreview(fresh.RefreshToken)),
	)

	return fresh, nil
}
