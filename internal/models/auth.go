// Модели запросов/ответов REST API StudySwap.
// Зеркалят JSON-контракт бэкенда; поля валидируются на границе клиента,
// так как бэкенд — внешняя, не полностью доверенная система.
package models

// LoginRequest — тело POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	DeviceID string `json:"deviceId"`
}

// LoginResponse — ответ POST /auth/login.
// Имя поля isLoginSuccesfull (с опечаткой) зафиксировано контрактом бэкенда.
type LoginResponse struct {
	IsLoginSuccessful string `json:"isLoginSuccesfull"`
	AccessToken       string `json:"accessToken"`
	RefreshToken      string `json:"refreshToken"`
}

// RegisterRequest — тело POST /auth/register.
type RegisterRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	University string `json:"university"`
	DeviceID   string `json:"deviceId"`
}

// RegisterResponse — ответ POST /auth/register.
type RegisterResponse struct {
	IsLoggedIn   string `json:"isLoggedIn"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ErrorMessage string `json:"errorMessage,omitempty"`
}

// RefreshRequest — тело POST /auth/refresh.
// DeviceID обязан совпадать с тем, под которым выдавался refresh-токен.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
	DeviceID     string `json:"deviceId"`
}

// RefreshResponse — ответ POST /auth/refresh.
// Бэкенд ротирует refresh-токен: значение в ответе всегда новое.
type RefreshResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	Message      string `json:"message,omitempty"`
}
