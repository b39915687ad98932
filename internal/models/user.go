package models

// User — профиль пользователя (GET /user, GET /user/{id}).
type User struct {
	UserID     int64  `json:"userId"`
	Email      string `json:"email"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	University string `json:"university"`
}

// PlaceholderUser — заглушка профиля сразу после восстановления сессии,
// пока настоящий профиль не подгружен (избегаем сетевого вызова,
// способного запустить ротацию токена на старте).
func PlaceholderUser(email string) User {
	return User{Email: email}
}
