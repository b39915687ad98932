// redact — безопасное представление чувствительных значений в логах.
// Токены и пароли никогда не попадают в лог целиком; для диагностики
// ротации refresh-токена достаточно короткого префикса.
package redact

import "strings"

// Email маскирует локальную часть адреса, сохраняя домен.
func Email(s string) string {
	parts := strings.Split(s, "@")
	if len(parts) != 2 {
		return "***"
	}

	local, domain := parts[0], parts[1]
	if r := []rune(local); len(r) > 2 {
		local = string(r[:2]) + "***"
	} else {
		local = "***"
	}

	return local + "@" + domain
}

// TokenPreview возвращает первые 8 символов токена + "...".
// Достаточно, чтобы по логам отличить старый refresh-токен от нового
// после ротации, не раскрывая сам секрет.
func TokenPreview(s string) string {
	const n = 8

	r := []rune(s)
	if len(r) <= n {
		return "***"
	}

	return string(r[:n]) + "..."
}

func Token() string    { return "[REDACTED_TOKEN]" }
func Password() string { return "[REDACTED_PASSWORD]" }
