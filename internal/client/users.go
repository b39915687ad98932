package client

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/studyswap/studyswap-go/internal/models"
)

// Profile возвращает профиль текущего пользователя (GET /user).
func (c *Client) Profile(ctx context.Context) (*models.User, error) {
	const op = "client.users.Profile"

	var out models.User
	if err := c.do(ctx, &request{
		method: http.MethodGet,
		path:   "/user",
		out:    &out,
	}); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &out, nil
}

// UserByID возвращает профиль пользователя по идентификатору (GET /user/{id}).
func (c *Client) UserByID(ctx context.Context, id int64) (*models.User, error) {
	const op = "client.users.UserByID"

	var out models.User
	if err := c.do(ctx, &request{
		method: http.MethodGet,
		path:   "/user/" + strconv.FormatInt(id, 10),
		out:    &out,
	}); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &out, nil
}
