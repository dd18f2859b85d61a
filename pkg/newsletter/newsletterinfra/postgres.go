// Package newsletterinfra persists newsletter send records in PostgreSQL.
//
// Expected schema:
//
//	CREATE TABLE newsletter_send_records (
//	    id               UUID PRIMARY KEY,
//	    sender_id        TEXT NOT NULL,
//	    sender_name      TEXT NOT NULL,
//	    receiver_id      TEXT,
//	    receiver_address TEXT NOT NULL,
//	    subject          TEXT NOT NULL,
//	    body             TEXT NOT NULL,
//	    status           TEXT NOT NULL,
//	    sent_at          TIMESTAMPTZ NOT NULL
//	);
//	CREATE INDEX idx_send_records_sent_at ON newsletter_send_records (sent_at DESC);
package newsletterinfra

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/orgpost/orgpost/pkg/kernel"
	"github.com/orgpost/orgpost/pkg/newsletter"
	"github.com/orgpost/orgpost/pkg/ptrx"
)

// PostgresRecordRepository is the PostgreSQL implementation of
// newsletter.RecordRepository.
type PostgresRecordRepository struct {
	db *sqlx.DB
}

func NewPostgresRecordRepository(db *sqlx.DB) newsletter.RecordRepository {
	return &PostgresRecordRepository{db: db}
}

// Save inserts one send record. Record IDs are generated per send, so an
// existing row with the same ID means the record was already persisted.
func (r *PostgresRecordRepository) Save(ctx context.Context, record newsletter.SendRecord) error {
	query := `
		INSERT INTO newsletter_send_records (
			id, sender_id, sender_name, receiver_id, receiver_address,
			subject, body, status, sent_at
		) VALUES (
			:id, :sender_id, :sender_name, :receiver_id, :receiver_address,
			:subject, :body, :status, :sent_at
		)`

	_, err := r.db.NamedExecContext(ctx, query, toPersistence(record))
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" { // unique_violation
			return nil
		}
		return newsletter.NewRecordSaveFailed(err).WithDetail("record_id", record.ID)
	}
	return nil
}

// List returns one page of send records, newest first.
func (r *PostgresRecordRepository) List(ctx context.Context, opts kernel.PaginationOptions) (*kernel.Paginated[newsletter.SendRecord], error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM newsletter_send_records`); err != nil {
		return nil, newsletter.NewRecordListFailed(err)
	}

	var rows []sendRecordPersistence
	query := `
		SELECT * FROM newsletter_send_records
		ORDER BY sent_at DESC, id
		LIMIT $1 OFFSET $2`

	offset := (opts.Page - 1) * opts.PageSize
	if err := r.db.SelectContext(ctx, &rows, query, opts.PageSize, offset); err != nil {
		return nil, newsletter.NewRecordListFailed(err)
	}

	records := make([]newsletter.SendRecord, len(rows))
	for i, row := range rows {
		records[i] = toDomain(row)
	}

	result := kernel.NewPaginated(records, opts.Page, opts.PageSize, total)
	return &result, nil
}

type sendRecordPersistence struct {
	ID              string          `db:"id"`
	SenderID        kernel.MemberID `db:"sender_id"`
	SenderName      string          `db:"sender_name"`
	ReceiverID      sql.NullString  `db:"receiver_id"`
	ReceiverAddress string          `db:"receiver_address"`
	Subject         string          `db:"subject"`
	Body            string          `db:"body"`
	Status          string          `db:"status"`
	SentAt          time.Time       `db:"sent_at"`
}

func toPersistence(record newsletter.SendRecord) sendRecordPersistence {
	p := sendRecordPersistence{
		ID:              record.ID,
		SenderID:        record.SenderID,
		SenderName:      record.SenderName,
		ReceiverAddress: record.ReceiverAddress,
		Subject:         record.Subject,
		Body:            record.Body,
		Status:          record.Status,
		SentAt:          record.SentAt,
	}
	if record.ReceiverID != nil {
		p.ReceiverID = sql.NullString{String: record.ReceiverID.String(), Valid: true}
	}
	return p
}

func toDomain(p sendRecordPersistence) newsletter.SendRecord {
	record := newsletter.SendRecord{
		ID:              p.ID,
		SenderID:        p.SenderID,
		SenderName:      p.SenderName,
		ReceiverAddress: p.ReceiverAddress,
		Subject:         p.Subject,
		Body:            p.Body,
		Status:          p.Status,
		SentAt:          p.SentAt,
	}
	if p.ReceiverID.Valid {
		record.ReceiverID = ptrx.Ptr(kernel.NewMemberID(p.ReceiverID.String))
	}
	return record
}
