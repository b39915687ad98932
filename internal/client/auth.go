package client

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/studyswap/studyswap-go/internal/models"
	"github.com/studyswap/studyswap-go/internal/pkg/log"
	"github.com/studyswap/studyswap-go/internal/pkg/redact"
)

// Login выполняет POST /auth/login. Токены из ответа НЕ сохраняются здесь:
// за персист и состояние сессии отвечает session-слой.
func (c *Client) Login(ctx context.Context, email, password string) (*models.LoginResponse, error) {
	const op = "client.auth.Login"

	deviceID, err := c.store.DeviceID(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.From(ctx).Debug("login_start",
		slog.String("op", op),
		slog.String("email", redact.Email(email)),
		slog.String("device_id", deviceID),
	)

	var out models.LoginResponse
	if err := c.postJSON(ctx, "/auth/login", models.LoginRequest{
		Email:    email,
		Password: password,
		DeviceID: deviceID,
	}, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &out, nil
}

// Register выполняет POST /auth/register. DeviceID проставляется из
// хранилища: тот же идентификатор пойдёт потом в refresh-запросы.
func (c *Client) Register(ctx context.Context, in models.RegisterRequest) (*models.RegisterResponse, error) {
	const op = "client.auth.Register"

	deviceID, err := c.store.DeviceID(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	in.DeviceID = deviceID

	log.From(ctx).Debug("register_start",
		slog.String("op", op),
		slog.String("email", redact.Email(in.Email)),
		slog.String("device_id", deviceID),
	)

	var out models.RegisterResponse
	if err := c.postJSON(ctx, "/auth/register", in, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &out, nil
}
