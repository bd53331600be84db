package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"

	"pharmapos/internal/core/appctx"
	"pharmapos/internal/core/id"
	"pharmapos/internal/domain/audit"
)

// Compile-time check that AuditRepo implements audit.Recorder.
var _ audit.Recorder = (*AuditRepo)(nil)

// compressThreshold is the detail payload size above which zstd kicks in.
const compressThreshold = 4 * 1024

// AuditRepo appends audit entries to sys_audit. Large detail payloads
// (full sale item arrays on cancellations) are zstd-compressed.
type AuditRepo struct {
	txManager *TxManager
	encoder   *zstd.Encoder
	decoder   *zstd.Decoder
}

// NewAuditRepo creates a new audit repository.
func NewAuditRepo(txManager *TxManager) (*AuditRepo, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return &AuditRepo{txManager: txManager, encoder: encoder, decoder: decoder}, nil
}

// Record appends one entry.
func (r *AuditRepo) Record(ctx context.Context, entry audit.Entry) error {
	if id.IsNil(entry.ID) {
		entry.ID = id.New()
	}
	if entry.ActorRole == "" {
		entry.ActorRole = appctx.GetRole(ctx)
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	var details []byte
	var detailsCompressed []byte
	if len(entry.Details) > 0 {
		raw, err := json.Marshal(entry.Details)
		if err != nil {
			return fmt.Errorf("marshal details: %w", err)
		}
		if len(raw) > compressThreshold {
			detailsCompressed = r.encoder.EncodeAll(raw, nil)
		} else {
			details = raw
		}
	}

	querier := r.txManager.GetQuerier(ctx)
	_, err := querier.Exec(ctx, `
		INSERT INTO sys_audit (
			id, action, entity_type, entity_id, message,
			details, details_compressed, actor_role, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		entry.ID, entry.Action, entry.EntityType, entry.EntityID, entry.Message,
		details, detailsCompressed, entry.ActorRole, entry.CreatedAt,
	)
	return err
}

// EntityHistory retrieves the trail for one entity, newest first.
func (r *AuditRepo) EntityHistory(ctx context.Context, entityType string, entityID id.ID, limit int) ([]audit.Entry, error) {
	rows, err := r.txManager.GetQuerier(ctx).Query(ctx, `
		SELECT id, action, entity_type, entity_id, message,
		       details, details_compressed, actor_role, created_at
		FROM sys_audit
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at DESC
		LIMIT $3
	`, entityType, entityID, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []audit.Entry
	for rows.Next() {
		var e audit.Entry
		var details, compressed []byte
		err := rows.Scan(
			&e.ID, &e.Action, &e.EntityType, &e.EntityID, &e.Message,
			&details, &compressed, &e.ActorRole, &e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}

		if len(compressed) > 0 {
			details, err = r.decoder.DecodeAll(compressed, nil)
			if err != nil {
				return nil, fmt.Errorf("decompress details: %w", err)
			}
		}
		if len(details) > 0 {
			if err := json.Unmarshal(details, &e.Details); err != nil {
				return nil, fmt.Errorf("unmarshal details: %w", err)
			}
		}

		entries = append(entries, e)
	}

	return entries, rows.Err()
}
