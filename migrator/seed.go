package migrator

import (
	"context"
	"fmt"
	"time"

	"github.com/holiman/uint256"

	"github.com/screwyprof/liquidstake/ledger"
	"github.com/screwyprof/liquidstake/pkg/clock"
)

// Demo ledger fixture
const (
	DemoValidatorAlpha = "val-alpha"
	DemoValidatorBeta  = "val-beta"
	DemoValidatorGamma = "val-gamma"

	DemoPendingRequestID = "demo-undelegation-1"
)

type snapshotSaver interface {
	SaveSnapshot(ctx context.Context, s ledger.Snapshot) error
}

type demoStep func(l *ledger.Ledger) error

// SeedDemo builds the demo ledger as of seedAt and saves it through store
func SeedDemo(ctx context.Context, store snapshotSaver, seedAt time.Time) error {
	l, err := DemoLedger(seedAt)
	if err != nil {
		return err
	}

	if err := store.SaveSnapshot(ctx, l.Snapshot()); err != nil {
		return fmt.Errorf("%w: %w", ErrSeedFailed, err)
	}
	return nil
}

// DemoLedger returns three validators, four positions, one reward round,
// one pending undelegation and a free receipt balance.
func DemoLedger(seedAt time.Time) (*ledger.Ledger, error) {
	var requests int
	l := ledger.New(
		ledger.WithClock(clock.FixedClock{At: seedAt.UTC()}),
		ledger.WithIDGenerator(func() string {
			requests++
			return fmt.Sprintf("demo-undelegation-%d", requests)
		}),
	)

	steps := []demoStep{
		register(DemoValidatorAlpha, 500, "Alpha staking", "https://alpha.example"),
		register(DemoValidatorBeta, 1000, "Beta staking", "https://beta.example"),
		register(DemoValidatorGamma, 2000, "", ""),
		delegate("alice", DemoValidatorAlpha, 10_000_000),
		delegate("bob", DemoValidatorAlpha, 5_000_000),
		delegate("carol", DemoValidatorBeta, 20_000_000),
		delegate("alice", DemoValidatorGamma, 3_000_000),
		distribute(DemoValidatorAlpha, 1_500_000),
		undelegate("bob", DemoValidatorAlpha, 1_000_000),
		withdraw("alice", DemoValidatorAlpha, 2_000_000),
		transfer("alice", "dave", 500_000),
	}

	for i, step := range steps {
		if err := step(l); err != nil {
			return nil, fmt.Errorf("%w: step %d: %w", ErrSeedFailed, i+1, err)
		}
	}

	if err := l.CheckInvariants(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSeedFailed, err)
	}
	return l, nil
}

func register(validatorID string, commissionBps uint32, description, website string) demoStep {
	return func(l *ledger.Ledger) error {
		_, err := l.RegisterOrUpdate(validatorID, ledger.ProfileParams{
			CommissionRateBps: &commissionBps,
			Description:       &description,
			Website:           &website,
		})
		return err
	}
}

func delegate(delegatorID, validatorID string, amount uint64) demoStep {
	return func(l *ledger.Ledger) error {
		_, err := l.Delegate(delegatorID, validatorID, *uint256.NewInt(amount))
		return err
	}
}

func distribute(validatorID string, rewards uint64) demoStep {
	return func(l *ledger.Ledger) error {
		_, err := l.DistributeRewards(validatorID, *uint256.NewInt(rewards))
		return err
	}
}

func undelegate(delegatorID, validatorID string, receipt uint64) demoStep {
	return func(l *ledger.Ledger) error {
		_, err := l.RequestUndelegate(delegatorID, validatorID, *uint256.NewInt(receipt))
		return err
	}
}

func withdraw(delegatorID, validatorID string, receipt uint64) demoStep {
	return func(l *ledger.Ledger) error {
		return l.WithdrawFromDelegation(delegatorID, validatorID, *uint256.NewInt(receipt))
	}
}

func transfer(from, to string, receipt uint64) demoStep {
	return func(l *ledger.Ledger) error {
		return l.TransferReceipt(from, to, *uint256.NewInt(receipt))
	}
}
