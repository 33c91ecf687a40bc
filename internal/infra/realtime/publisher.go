package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
	"github.com/m04kA/SMC-ParkingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-ParkingService/pkg/psqlbuilder"
)

// Publisher отправляет события через pg_notify
// Внутри транзакции уведомление уходит подписчикам только после COMMIT
type Publisher struct {
	db      dbmetrics.DBExecutor
	channel string
}

// NewPublisher создает издателя для канала LISTEN/NOTIFY
func NewPublisher(db dbmetrics.DBExecutor, channel string) *Publisher {
	return &Publisher{db: db, channel: channel}
}

// Publish отправляет событие доступности места
func (p *Publisher) Publish(ctx context.Context, event domain.SpotEvent) error {
	executor := dbmetrics.GetExecutor(ctx, p.db)

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("%w: Publish - marshal event: %v", ErrPublish, err)
	}

	query, args, err := psqlbuilder.Select().
		Column(squirrel.Expr("pg_notify(?, ?)", p.channel, string(payload))).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: Publish - build query: %v", ErrPublish, err)
	}

	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: Publish - %s: %v", ErrPublish, event.Path(), err)
	}

	return nil
}
