package pgxstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/screwyprof/liquidstake/ledger"
	"github.com/screwyprof/liquidstake/ledger/store/dbrow"
)

// Sentinel errors for store operations
var (
	ErrTransactionFailed = errors.New("transaction failed")
	ErrTruncateFailed    = errors.New("clearing ledger tables failed")
	ErrCopyFailed        = errors.New("bulk copy operation failed")
	ErrPoolStateFailed   = errors.New("pool state update failed")
	ErrQueryFailed       = errors.New("snapshot query failed")
	ErrConversionFailed  = errors.New("row conversion failed")
)

// SQL queries
const (
	clearLedgerSQL = `TRUNCATE delegations, undelegation_requests, free_balances, validators`

	upsertPoolStateSQL = `
		INSERT INTO pool_state (
			single_row, version, total_delegated, total_receipt_supply,
			exchange_rate, rewards_accumulated, last_exchange_rate_update
		)
		VALUES (TRUE, @version, @total_delegated, @total_receipt_supply,
			@exchange_rate, @rewards_accumulated, @last_exchange_rate_update)
		ON CONFLICT (single_row) DO UPDATE SET
			version = EXCLUDED.version,
			total_delegated = EXCLUDED.total_delegated,
			total_receipt_supply = EXCLUDED.total_receipt_supply,
			exchange_rate = EXCLUDED.exchange_rate,
			rewards_accumulated = EXCLUDED.rewards_accumulated,
			last_exchange_rate_update = EXCLUDED.last_exchange_rate_update`

	selectPoolStateSQL = `
		SELECT version, total_delegated, total_receipt_supply, exchange_rate,
			rewards_accumulated, last_exchange_rate_update
		FROM pool_state`

	selectValidatorsSQL = `
		SELECT validator_id, commission_rate_bps, total_delegated, delegator_count,
			rewards_distributed, commission_earned, description, website, created_at, updated_at
		FROM validators ORDER BY validator_id`

	selectDelegationsSQL = `
		SELECT delegator_id, validator_id, amount, receipt_balance, pending_rewards,
			delegated_at, last_reward_claim
		FROM delegations ORDER BY delegator_id, validator_id`

	selectUndelegationRequestsSQL = `
		SELECT id, delegator_id, validator_id, amount, receipt_amount, principal_deducted,
			requested_at, available_at, processed_at, status
		FROM undelegation_requests ORDER BY id`

	selectFreeBalancesSQL = `SELECT address, amount FROM free_balances ORDER BY address`
)

// Store implements ledger.Store using pgx
type Store struct {
	pool *pgxpool.Pool
}

// New creates a new PostgreSQL snapshot store with an existing connection pool
// Returns the store and a closer function
func New(pool *pgxpool.Pool) (*Store, func()) {
	store := &Store{pool: pool}
	closer := func() {
		pool.Close()
	}
	return store, closer
}

// SaveSnapshot replaces the persisted ledger with the snapshot in a single transaction
func (s *Store) SaveSnapshot(ctx context.Context, snap ledger.Snapshot) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTransactionFailed, err)
	}
	defer func() { _ = tx.Rollback(ctx) }() // No-op if commit succeeds

	if _, err = tx.Exec(ctx, clearLedgerSQL); err != nil {
		return fmt.Errorf("%w: %w", ErrTruncateFailed, err)
	}

	// validators first, the other tables reference them
	copies := []struct {
		table   string
		columns []string
		rows    [][]any
	}{
		{"validators", dbrow.ValidatorColumns, dbrow.ValidatorsToRows(snap.Profiles)},
		{"delegations", dbrow.DelegationColumns, dbrow.DelegationsToRows(snap.Delegations)},
		{"undelegation_requests", dbrow.UndelegationRequestColumns, dbrow.UndelegationRequestsToRows(snap.Requests)},
		{"free_balances", dbrow.FreeBalanceColumns, dbrow.FreeBalancesToRows(snap.FreeBalances)},
	}
	for _, c := range copies {
		if len(c.rows) == 0 {
			continue
		}
		if _, err = tx.CopyFrom(ctx, pgx.Identifier{c.table}, c.columns, pgx.CopyFromRows(c.rows)); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrCopyFailed, c.table, err)
		}
	}

	row := dbrow.FromPool(snap.Version, snap.Pool)
	_, err = tx.Exec(ctx, upsertPoolStateSQL, pgx.NamedArgs{
		"version":                   row.Version,
		"total_delegated":           row.TotalDelegated,
		"total_receipt_supply":      row.TotalReceiptSupply,
		"exchange_rate":             row.ExchangeRate,
		"rewards_accumulated":       row.RewardsAccumulated,
		"last_exchange_rate_update": row.LastExchangeRateUpdate,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPoolStateFailed, err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrTransactionFailed, err)
	}

	return nil
}

// LoadSnapshot reads the persisted ledger. An empty database yields an empty snapshot.
func (s *Store) LoadSnapshot(ctx context.Context) (ledger.Snapshot, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return ledger.Snapshot{}, fmt.Errorf("%w: %w", ErrTransactionFailed, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	poolRows, err := query[dbrow.PoolState](ctx, tx, selectPoolStateSQL)
	if err != nil {
		return ledger.Snapshot{}, err
	}
	if len(poolRows) == 0 {
		return ledger.Snapshot{}, nil
	}

	pool, err := poolRows[0].ToPool()
	if err != nil {
		return ledger.Snapshot{}, fmt.Errorf("%w: pool_state: %w", ErrConversionFailed, err)
	}
	snap := ledger.Snapshot{Version: uint64(poolRows[0].Version), Pool: pool}

	validators, err := query[dbrow.Validator](ctx, tx, selectValidatorsSQL)
	if err != nil {
		return ledger.Snapshot{}, err
	}
	if snap.Profiles, err = convert(validators, dbrow.Validator.ToProfile); err != nil {
		return ledger.Snapshot{}, fmt.Errorf("%w: validators: %w", ErrConversionFailed, err)
	}

	delegations, err := query[dbrow.Delegation](ctx, tx, selectDelegationsSQL)
	if err != nil {
		return ledger.Snapshot{}, err
	}
	if snap.Delegations, err = convert(delegations, dbrow.Delegation.ToDelegation); err != nil {
		return ledger.Snapshot{}, fmt.Errorf("%w: delegations: %w", ErrConversionFailed, err)
	}

	requests, err := query[dbrow.UndelegationRequest](ctx, tx, selectUndelegationRequestsSQL)
	if err != nil {
		return ledger.Snapshot{}, err
	}
	if snap.Requests, err = convert(requests, dbrow.UndelegationRequest.ToRequest); err != nil {
		return ledger.Snapshot{}, fmt.Errorf("%w: undelegation_requests: %w", ErrConversionFailed, err)
	}

	balances, err := query[dbrow.FreeBalance](ctx, tx, selectFreeBalancesSQL)
	if err != nil {
		return ledger.Snapshot{}, err
	}
	if snap.FreeBalances, err = convert(balances, dbrow.FreeBalance.ToFreeBalance); err != nil {
		return ledger.Snapshot{}, fmt.Errorf("%w: free_balances: %w", ErrConversionFailed, err)
	}

	return snap, nil
}

func query[T any](ctx context.Context, tx pgx.Tx, sql string) ([]T, error) {
	rows, err := tx.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}

	out, err := pgx.CollectRows(rows, pgx.RowToStructByName[T])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}
	return out, nil
}

func convert[R, T any](rows []R, fn func(R) (T, error)) ([]T, error) {
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		v, err := fn(r)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
