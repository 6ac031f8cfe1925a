package main

import (
	"context"
	"log/slog"
	"math/big"

	"github.com/holiman/uint256"

	"github.com/screwyprof/liquidstake/ledger"
	"github.com/screwyprof/liquidstake/pkg/logger"
	"github.com/screwyprof/liquidstake/pkg/metrics"
)

var rateScale = new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(ledger.RateScaleDigits), nil))

// setupLedgerEventLogging logs committed ledger mutations and refreshes pool gauges
func setupLedgerEventLogging(ctx context.Context, events <-chan ledger.Event, log *slog.Logger, recorder *metrics.Recorder, l *ledger.Ledger) func() {
	return ledger.NewSubscriber(events,
		ledger.OnAny(func(e ledger.Event) {
			recorder.ObserveEvent(ledger.EventName(e))
			recorder.SetPool(poolState(l))
		}),
		ledger.On(func(e ledger.ValidatorRegistered) {
			log.InfoContext(ctx, "Validator registered",
				slog.String("validator", e.Profile.ValidatorID),
				slog.Bool("created", e.Created),
				slog.Uint64("commissionBps", uint64(e.Profile.CommissionRateBps)),
			)
		}),
		ledger.On(func(e ledger.Delegated) {
			log.InfoContext(ctx, "Delegated",
				slog.String("delegator", e.DelegatorID),
				slog.String("validator", e.ValidatorID),
				slog.String("amount", dec(e.Amount)),
				slog.String("receiptMinted", dec(e.ReceiptMinted)),
			)
		}),
		ledger.On(func(e ledger.UndelegationRequested) {
			log.InfoContext(ctx, "Undelegation requested",
				slog.String("request", e.Request.ID),
				slog.String("delegator", e.Request.DelegatorID),
				slog.String("amount", dec(e.Request.Amount)),
				slog.String("availableAt", e.Request.AvailableAt.Format(logger.BritishTimeFormat)),
			)
		}),
		ledger.On(func(e ledger.UndelegationCompleted) {
			log.InfoContext(ctx, "Undelegation completed",
				slog.String("request", e.Request.ID),
				slog.Bool("swept", e.Swept),
				slog.Bool("positionClosed", e.PositionClosed),
			)
		}),
		ledger.On(func(e ledger.UndelegationCancelled) {
			log.InfoContext(ctx, "Undelegation cancelled",
				slog.String("request", e.Request.ID),
				slog.Bool("positionReopened", e.PositionReopened),
			)
		}),
		ledger.On(func(e ledger.ReceiptWithdrawn) {
			log.InfoContext(ctx, "Receipt withdrawn",
				slog.String("delegator", e.DelegatorID),
				slog.String("validator", e.ValidatorID),
				slog.String("amount", dec(e.Amount)),
			)
		}),
		ledger.On(func(e ledger.ReceiptTransferred) {
			log.InfoContext(ctx, "Receipt transferred",
				slog.String("from", e.From),
				slog.String("to", e.To),
				slog.String("amount", dec(e.Amount)),
			)
		}),
		ledger.On(func(e ledger.RewardsDistributed) {
			log.InfoContext(ctx, "Rewards distributed",
				slog.String("validator", e.Distribution.ValidatorID),
				slog.String("total", dec(e.Distribution.TotalRewards)),
				slog.String("commission", dec(e.Distribution.Commission)),
				slog.String("dust", dec(e.Distribution.Dust)),
				slog.String("exchangeRate", dec(e.Distribution.ExchangeRate)),
			)
		}),
		ledger.On(func(e ledger.RewardsClaimed) {
			log.InfoContext(ctx, "Rewards claimed",
				slog.String("delegator", e.DelegatorID),
				slog.String("amount", dec(e.Amount)),
			)
		}),
	)
}

// setupServiceEventLogging configures service event handlers using slog directly
func setupServiceEventLogging(ctx context.Context, events <-chan ledger.Event, log *slog.Logger, recorder *metrics.Recorder) func() {
	return ledger.NewSubscriber(events,
		ledger.OnAny(func(e ledger.Event) {
			recorder.ObserveEvent(ledger.EventName(e))
		}),
		ledger.OnServiceStarted(func(e ledger.ServiceStarted) {
			log.InfoContext(ctx, "Sweeper started",
				slog.Duration("interval", e.SweepInterval),
			)
		}),
		ledger.OnSweepCompleted(func(e ledger.SweepCompleted) {
			if e.Completed > 0 {
				log.InfoContext(ctx, "Sweep completed",
					slog.Int("completed", e.Completed),
					slog.Any("requests", e.RequestIDs),
				)
			} else {
				log.DebugContext(ctx, "Sweep completed, nothing due")
			}
		}),
		ledger.OnSnapshotSaved(func(e ledger.SnapshotSaved) {
			log.InfoContext(ctx, "Snapshot saved",
				slog.Uint64("version", e.Version),
			)
		}),
		ledger.OnSnapshotError(func(e ledger.SnapshotError) {
			log.ErrorContext(ctx, "Snapshot failed", slog.Any("error", e.Err))
		}),
		ledger.OnServiceShutdown(func(e ledger.ServiceShutdown) {
			log.InfoContext(ctx, "Sweeper stopped",
				slog.String("reason", e.Reason.Error()),
			)
		}),
	)
}

// poolState converts ledger stats to gauge values
func poolState(l *ledger.Ledger) metrics.PoolState {
	stats, err := l.GetDelegationStats()
	if err != nil {
		return metrics.PoolState{}
	}

	rate, _ := new(big.Float).Quo(toFloat(stats.Pool.ExchangeRate), rateScale).Float64()

	return metrics.PoolState{
		ExchangeRate:         rate,
		TotalDelegated:       toFloat64(stats.Pool.TotalDelegated),
		ReceiptSupply:        toFloat64(stats.Pool.TotalReceiptSupply),
		RewardsAccumulated:   toFloat64(stats.Pool.RewardsAccumulated),
		PendingUndelegations: stats.PendingUndelegations,
		Validators:           stats.ValidatorCount,
		Delegations:          stats.DelegationCount,
	}
}

func toFloat(u uint256.Int) *big.Float {
	return new(big.Float).SetInt(u.ToBig())
}

func toFloat64(u uint256.Int) float64 {
	f, _ := toFloat(u).Float64()
	return f
}

func dec(u uint256.Int) string {
	return u.Dec()
}
