package mailer

import (
	"context"
	"sync"
	"time"

	"hub-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const batchSize = 50

// Dispatcher drains the outbox. A row is marked sent only after a successful
// send, so delivery is at least once.
type Dispatcher struct {
	DB          *gorm.DB
	Mailer      Mailer
	MaxAttempts int
	Interval    time.Duration
	// OnTick runs after each scheduled drain (housekeeping such as purging staged users).
	OnTick func(ctx context.Context)

	notify chan struct{}
	mu     sync.Mutex // serialises drains
	once   sync.Once
}

func (d *Dispatcher) init() {
	d.once.Do(func() {
		d.notify = make(chan struct{}, 1)
	})
}

// Notify wakes the dispatcher without blocking.
func (d *Dispatcher) Notify() {
	if d == nil {
		return
	}
	d.init()
	select {
	case d.notify <- struct{}{}:
	default:
	}
}

// Run drains on every tick and every Notify until ctx is done.
func (d *Dispatcher) Run(ctx context.Context) {
	d.init()
	interval := d.Interval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-d.notify:
			d.drain(ctx)
		case <-ticker.C:
			d.drain(ctx)
			if d.OnTick != nil {
				d.OnTick(ctx)
			}
		}
	}
}

// Flush drains synchronously and returns the number of messages sent.
func (d *Dispatcher) Flush(ctx context.Context) (int, error) {
	return d.flush(ctx)
}

func (d *Dispatcher) drain(ctx context.Context) {
	if _, err := d.flush(ctx); err != nil && ctx.Err() == nil {
		log.Error().Err(err).Msg("Mail dispatcher drain failed")
	}
}

func (d *Dispatcher) maxAttempts() int {
	if d.MaxAttempts <= 0 {
		return 5
	}
	return d.MaxAttempts
}

func (d *Dispatcher) flush(ctx context.Context) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	sent := 0
	// Each row is tried at most once per flush.
	var seen []uuid.UUID
	for {
		q := d.DB.WithContext(ctx).Where("sent_at IS NULL AND attempts < ?", d.maxAttempts())
		if len(seen) > 0 {
			q = q.Where("mail_id NOT IN ?", seen)
		}
		var batch []domain.MailOutbox
		if err := q.Order("created_at ASC").Limit(batchSize).Find(&batch).Error; err != nil {
			return sent, errors.Wrap(err, "load outbox")
		}
		for i := range batch {
			seen = append(seen, batch[i].MailID)
			ok, err := d.deliver(ctx, &batch[i])
			if err != nil {
				return sent, err
			}
			if ok {
				sent++
			}
		}
		if len(batch) < batchSize {
			return sent, nil
		}
	}
}

// deliver sends one row. A send failure is recorded on the row, not returned.
func (d *Dispatcher) deliver(ctx context.Context, row *domain.MailOutbox) (bool, error) {
	msg := Message{Kind: row.Kind, To: row.To, Subject: row.Subject, Body: row.Body}
	if sendErr := d.Mailer.Send(ctx, msg); sendErr != nil {
		attempts := row.Attempts + 1
		ev := log.Warn()
		if attempts >= d.maxAttempts() {
			ev = log.Error()
		}
		ev.Err(sendErr).Str("mail_id", row.MailID.String()).Str("kind", row.Kind).Int("attempts", attempts).Msg("Mail delivery failed")
		err := d.DB.WithContext(ctx).Model(row).Updates(map[string]interface{}{
			"attempts":   attempts,
			"last_error": sendErr.Error(),
		}).Error
		return false, errors.Wrap(err, "record mail failure")
	}
	now := time.Now()
	err := d.DB.WithContext(ctx).Model(row).Updates(map[string]interface{}{
		"attempts": row.Attempts + 1,
		"sent_at":  &now,
	}).Error
	return true, errors.Wrap(err, "mark mail sent")
}
