package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vietddude/modswap/internal/core/domain"
	"github.com/vietddude/modswap/internal/infra/storage"
)

// submissionRow is the submissions table row.
type submissionRow struct {
	ID            string    `db:"id"`
	ChainID       int64     `db:"chain_id"`
	Account       string    `db:"account"`
	Nonce         int64     `db:"nonce"`
	Kind          string    `db:"kind"`
	TxHash        string    `db:"tx_hash"`
	PaymasterMode string    `db:"paymaster_mode"`
	Status        string    `db:"status"`
	Error         string    `db:"error"`
	BlockNumber   int64     `db:"block_number"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

func toRow(s *domain.Submission) submissionRow {
	mode := string(s.PaymasterMode)
	if mode == "" {
		mode = string(domain.PaymasterNone)
	}
	return submissionRow{
		ID:            s.ID,
		ChainID:       int64(s.ChainID),
		Account:       s.Account,
		Nonce:         int64(s.Nonce),
		Kind:          string(s.Kind),
		TxHash:        s.TxHash,
		PaymasterMode: mode,
		Status:        string(s.Status),
		Error:         s.Error,
		BlockNumber:   int64(s.BlockNumber),
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
}

func (r submissionRow) toDomain() *domain.Submission {
	return &domain.Submission{
		ID:            r.ID,
		ChainID:       uint64(r.ChainID),
		Account:       r.Account,
		Nonce:         uint64(r.Nonce),
		Kind:          domain.SubmissionKind(r.Kind),
		TxHash:        r.TxHash,
		PaymasterMode: domain.PaymasterMode(r.PaymasterMode),
		Status:        domain.SubmissionStatus(r.Status),
		Error:         r.Error,
		BlockNumber:   uint64(r.BlockNumber),
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

// SubmissionRepo implements storage.SubmissionRepository using PostgreSQL.
type SubmissionRepo struct {
	db *DB
}

var _ storage.SubmissionRepository = (*SubmissionRepo)(nil)

func NewSubmissionRepo(db *DB) *SubmissionRepo {
	return &SubmissionRepo{db: db}
}

func (r *SubmissionRepo) Create(ctx context.Context, s *domain.Submission) error {
	row := toRow(s)
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	row.UpdatedAt = row.CreatedAt

	query := `
		INSERT INTO submissions (
			id, chain_id, account, nonce, kind, tx_hash, paymaster_mode, status, error, block_number, created_at, updated_at
		) VALUES (
			:id, :chain_id, :account, :nonce, :kind, :tx_hash, :paymaster_mode, :status, :error, :block_number, :created_at, :updated_at
		)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at
	`
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("failed to save submission: %w", err)
	}
	return nil
}

func (r *SubmissionRepo) UpdateStatus(
	ctx context.Context,
	id string,
	status domain.SubmissionStatus,
	blockNumber uint64,
	errMsg string,
) error {
	query := `
		UPDATE submissions
		SET status = $2, block_number = $3, error = $4, updated_at = NOW()
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query, id, string(status), int64(blockNumber), errMsg)
	if err != nil {
		return fmt.Errorf("failed to update submission: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return storage.ErrSubmissionNotFound
	}
	return nil
}

func (r *SubmissionRepo) Get(ctx context.Context, id string) (*domain.Submission, error) {
	var row submissionRow
	err := r.db.GetContext(ctx, &row, `SELECT * FROM submissions WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrSubmissionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	return row.toDomain(), nil
}

func (r *SubmissionRepo) ListByAccount(ctx context.Context, account string, limit int) ([]*domain.Submission, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []submissionRow
	query := `
		SELECT * FROM submissions
		WHERE account = $1
		ORDER BY created_at DESC, nonce DESC
		LIMIT $2
	`
	if err := r.db.SelectContext(ctx, &rows, query, account, limit); err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	return toDomainList(rows), nil
}

func (r *SubmissionRepo) ListPending(ctx context.Context, chainID uint64) ([]*domain.Submission, error) {
	var rows []submissionRow
	query := `
		SELECT * FROM submissions
		WHERE chain_id = $1 AND status = 'pending'
		ORDER BY created_at
	`
	if err := r.db.SelectContext(ctx, &rows, query, int64(chainID)); err != nil {
		return nil, fmt.Errorf("failed to list pending submissions: %w", err)
	}
	return toDomainList(rows), nil
}

func toDomainList(rows []submissionRow) []*domain.Submission {
	out := make([]*domain.Submission, len(rows))
	for i, row := range rows {
		out[i] = row.toDomain()
	}
	return out
}
