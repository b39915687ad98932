// config предоставляет структуру конфигурации SDK и функции
// загрузки из файла/переменных окружения с предсказуемым приоритетом.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config — корневая конфигурация клиента.
// Источники значений (по убыванию приоритета):
//  1. явный путь через флаг --config;
//  2. путь в переменной окружения CONFIG_PATH;
//  3. файл local.yaml из рабочей директории;
//  4. переменные окружения (cleanenv).
type Config struct {
	Env    string       `yaml:"env" env:"ENV" env-default:"local"`
	API    APIConfig    `yaml:"api"`
	Tokens TokensConfig `yaml:"tokens"`
}

// APIConfig — параметры обращения к REST-бэкенду StudySwap.
type APIConfig struct {
	// BaseURL — корень REST API, включая префикс версии
	// (например, http://localhost:8080/api/v1).
	BaseURL string `yaml:"base_url" env:"API_BASE_URL" env-required:"true"`
	// MediaBaseURL — корень для /media/{file}; если пуст — origin BaseURL.
	MediaBaseURL string `yaml:"media_base_url" env:"API_MEDIA_BASE_URL"`
	// UserAgent проставляется во все запросы.
	UserAgent string `yaml:"user_agent" env:"API_USER_AGENT" env-default:"studyswap-go/1.0"`
	// RequestTimeout — таймаут обычных запросов.
	RequestTimeout time.Duration `yaml:"request_timeout" env:"API_REQUEST_TIMEOUT" env-default:"10s"`
	// UploadTimeout — таймаут multipart-загрузок (создание объявления).
	UploadTimeout time.Duration `yaml:"upload_timeout" env:"API_UPLOAD_TIMEOUT" env-default:"30s"`
	// TokenSafetyMargin — запас до истечения access-токена, при котором
	// токен обновляется превентивно (поглощает расхождение часов и латентность).
	TokenSafetyMargin time.Duration `yaml:"token_safety_margin" env:"API_TOKEN_SAFETY_MARGIN" env-default:"300s"`
	// SettleDelay — пауза между реактивным обновлением токена и повтором
	// запроса: бэкенду нужно время дораскатать ротацию refresh-токена.
	SettleDelay time.Duration `yaml:"settle_delay" env:"API_SETTLE_DELAY" env-default:"750ms"`
}

// MediaBase возвращает базу для медиа-запросов: явную или origin BaseURL.
func (a APIConfig) MediaBase() string {
	if a.MediaBaseURL != "" {
		return strings.TrimRight(a.MediaBaseURL, "/")
	}

	base := a.BaseURL
	// Отрезаем путь, оставляя scheme://host[:port].
	if i := strings.Index(base, "://"); i >= 0 {
		if j := strings.Index(base[i+3:], "/"); j >= 0 {
			base = base[:i+3+j]
		}
	}

	return strings.TrimRight(base, "/")
}

// TokensConfig — параметры локального хранилища токенов.
type TokensConfig struct {
	// Path — путь к зашифрованному файлу токенов; по умолчанию —
	// <user-config-dir>/studyswap/tokens.enc.
	Path string `yaml:"path" env:"TOKENS_PATH"`
	// Secret — секрет для шифрования файла токенов.
	Secret string `yaml:"secret" env:"TOKENS_SECRET" env-required:"true"`
}

// StorePath возвращает путь к файлу токенов, подставляя дефолт при пустом Path.
func (t TokensConfig) StorePath() (string, error) {
	if t.Path != "" {
		return t.Path, nil
	}

	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("config.StorePath: %w", err)
	}

	return filepath.Join(dir, "studyswap", "tokens.enc"), nil
}

// MustLoad — обёртка над Load с panic при ошибке.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}

	return cfg
}

// Load загружает конфигурацию по приоритету:
// 1) явный путь; 2) CONFIG_PATH; 3) ./local.yaml; 4) ENV.
// ВАЖНО: после чтения файла накладываем ENV-переменные поверх значений из YAML.
func Load(path string) (*Config, error) {
	var cfg Config

	// чтение файла + overlay ENV.
	tryRead := func(p string) (*Config, error) {
		if p == "" {
			return nil, fmt.Errorf("empty config path")
		}

		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("config file %q stat failed: %w", p, err)
		}

		if err := cleanenv.ReadConfig(p, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}

		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to overlay env: %w", err)
		}

		return &cfg, nil
	}

	// 1) Явный путь.
	if path != "" {
		return tryRead(path)
	}

	// 2) CONFIG_PATH.
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		return tryRead(envPath)
	}

	// 3) ./local.yaml.
	if _, err := os.Stat("local.yaml"); err == nil {
		if err := cleanenv.ReadConfig("local.yaml", &cfg); err != nil {
			return nil, fmt.Errorf("failed to read local.yaml: %w", err)
		}

		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to overlay env: %w", err)
		}

		return &cfg, nil
	}

	// 4) Только ENV.
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config not found: provide --config, CONFIG_PATH, local.yaml or env vars: %w", err)
	}

	return &cfg, nil
}
