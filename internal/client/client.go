// client — типизированный клиент REST API StudySwap с автоматическим
// сопровождением сессии.
//
// Ядро пакета — связка «координатор обновления токенов + исполнитель
// авторизованных запросов»:
//   - сколько бы запросов ни обнаружили истёкший или отвергнутый access-токен
//     одновременно, сетевой вызов /auth/refresh выполняется не более одного;
//     все ожидающие получают его общий результат;
//   - каждый логический вызов повторяется после обновления не более одного
//     раза, поэтому зацикливание refresh/retry невозможно даже при
//     некорректном поведении бэкенда.
//
// Состояние координатора живёт в экземпляре Client (никаких глобалов):
// тесты поднимают изолированные клиенты, потребители внедряют зависимость явно.
package client

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/studyswap/studyswap-go/internal/config"
	"github.com/studyswap/studyswap-go/internal/tokens"
)

// Client — клиент API. Безопасен для конкурентного использования.
type Client struct {
	baseURL  string
	mediaURL string
	ua       string

	httpc   *http.Client
	uploadc *http.Client

	store  tokens.Store
	margin time.Duration
	settle time.Duration

	// Однополётный координатор обновления пары токенов.
	flight singleflight.Group

	// Поколение сессии: logout инкрементирует, обновление устаревшего
	// поколения отбрасывает свой результат. genMu сериализует проверку
	// поколения с записью пары в Store.
	genMu sync.Mutex
	gen   uint64
}

// New создаёт клиент поверх хранилища токенов.
func New(cfg config.APIConfig, store tokens.Store) (*Client, error) {
	const op = "client.New"

	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%s: empty base url", op)
	}
	if store == nil {
		return nil, fmt.Errorf("%s: nil token store", op)
	}

	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		mediaURL: cfg.MediaBase(),
		ua:       cfg.UserAgent,
		httpc:    &http.Client{Timeout: cfg.RequestTimeout},
		uploadc:  &http.Client{Timeout: cfg.UploadTimeout},
		store:    store,
		margin:   cfg.TokenSafetyMargin,
		settle:   cfg.SettleDelay,
	}, nil
}

// Store возвращает хранилище токенов, с которым работает клиент.
func (c *Client) Store() tokens.Store {
	return c.store
}
