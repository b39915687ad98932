// log — перенос request-scoped логгера через context.
//
// SDK не навязывает потребителю глобальный логгер: каждая операция берёт
// логгер из контекста вызова (log.From), а потребитель кладёт его туда
// один раз (log.Into) при старте запроса/команды.
package log

import (
	"context"
	"log/slog"
)

type ctxKey struct{}

// Into кладёт логгер в контекст.
func Into(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// From достаёт логгер из контекста (или возвращает slog.Default()).
func From(ctx context.Context) *slog.Logger {
	if v := ctx.Value(ctxKey{}); v != nil {
		if l, ok := v.(*slog.Logger); ok && l != nil {
			return l
		}
	}

	return slog.Default()
}

// WithOp возвращает логгер из контекста с уже навешенным атрибутом op.
// Сокращает типовой паттерн log.From(ctx).With("op", op) в клиентском коде.
func WithOp(ctx context.Context, op string) *slog.Logger {
	return From(ctx).With(slog.String("op", op))
}
