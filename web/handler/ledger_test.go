package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/screwyprof/liquidstake/ledger"
	"github.com/screwyprof/liquidstake/web/api"
	"github.com/screwyprof/liquidstake/web/handler"
)

var genesis = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// testServer wires the handler to a fresh ledger
type testServer struct {
	t      *testing.T
	clock  *testClock
	ledger *ledger.Ledger
	mux    *http.ServeMux
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	var n int
	clock := &testClock{now: genesis}
	l := ledger.New(
		ledger.WithClock(clock),
		ledger.WithMinDelegation(*uint256.NewInt(1)),
		ledger.WithIDGenerator(func() string {
			n++
			return "req-" + strconv.Itoa(n)
		}),
	)

	mux := http.NewServeMux()
	handler.NewLedger(l).AddRoutes(mux)

	return &testServer{t: t, clock: clock, ledger: l, mux: mux}
}

func (s *testServer) do(method, target, body string) *httptest.ResponseRecorder {
	s.t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, req)

	return rec
}

func (s *testServer) mustDo(method, target, body string, code int) *httptest.ResponseRecorder {
	s.t.Helper()

	rec := s.do(method, target, body)
	require.Equal(s.t, code, rec.Code, rec.Body.String())

	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))

	return v
}

func assertError(t *testing.T, rec *httptest.ResponseRecorder, code int, message string) {
	t.Helper()

	assert.Equal(t, code, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Equal(t, float64(code), body["code"])
	assert.Contains(t, body["message"], message)
}

// Scenario builders

func (s *testServer) withValidator(id string, commissionBps int) *testServer {
	s.t.Helper()
	s.mustDo(http.MethodPost, "/validators",
		`{"validator_id":"`+id+`","commission_rate_bps":`+strconv.Itoa(commissionBps)+`}`, http.StatusCreated)
	return s
}

func (s *testServer) withDelegation(delegator, validator, amount string) *testServer {
	s.t.Helper()
	s.mustDo(http.MethodPost, "/delegations",
		`{"delegator_id":"`+delegator+`","validator_id":"`+validator+`","amount":"`+amount+`"}`, http.StatusCreated)
	return s
}

func TestValidatorRoutes(t *testing.T) {
	t.Parallel()

	t.Run("it registers then updates a validator", func(t *testing.T) {
		t.Parallel()

		// Arrange
		s := newTestServer(t)

		// Act
		first := s.mustDo(http.MethodPost, "/validators", `{"validator_id":"v1"}`, http.StatusCreated)
		second := s.mustDo(http.MethodPost, "/validators", `{"validator_id":"v1","commission_rate_bps":700,"website":"https://v1.example"}`, http.StatusOK)

		// Assert
		assert.Equal(t, ledger.DefaultCommissionBps, decode[api.Validator](t, first).CommissionRateBps)
		updated := decode[api.Validator](t, second)
		assert.Equal(t, uint32(700), updated.CommissionRateBps)
		assert.Equal(t, "https://v1.example", updated.Website)
		assert.Equal(t, "0", updated.TotalDelegated)
	})

	t.Run("it rejects commission above the cap", func(t *testing.T) {
		t.Parallel()

		// Arrange
		s := newTestServer(t)

		// Act
		rec := s.do(http.MethodPost, "/validators", `{"validator_id":"v1","commission_rate_bps":5001}`)

		// Assert
		assertError(t, rec, http.StatusBadRequest, ledger.ErrInvalidCommission.Error())
	})

	t.Run("it returns 404 for unknown validators", func(t *testing.T) {
		t.Parallel()

		// Arrange
		s := newTestServer(t)

		// Act
		rec := s.do(http.MethodGet, "/validators/ghost", "")

		// Assert
		assertError(t, rec, http.StatusNotFound, "unknown validator")
	})

	t.Run("it orders top validators by stake", func(t *testing.T) {
		t.Parallel()

		// Arrange
		s := newTestServer(t).withValidator("v1", 0).withValidator("v2", 0).withValidator("v3", 0)
		s.withDelegation("alice", "v2", "300").withDelegation("alice", "v3", "200").withDelegation("bob", "v1", "100")

		// Act
		rec := s.mustDo(http.MethodGet, "/validators/top?limit=2", "", http.StatusOK)

		// Assert
		top := decode[api.ListResponse[api.Validator]](t, rec).Data
		require.Len(t, top, 2)
		assert.Equal(t, "v2", top[0].ValidatorID)
		assert.Equal(t, "v3", top[1].ValidatorID)
	})

	t.Run("it paginates validators with Link headers", func(t *testing.T) {
		t.Parallel()

		// Arrange
		s := newTestServer(t).withValidator("v1", 0).withValidator("v2", 0).withValidator("v3", 0)

		// Act
		rec := s.mustDo(http.MethodGet, "/validators?page=2&per_page=1", "", http.StatusOK)

		// Assert
		list := decode[api.ListResponse[api.Validator]](t, rec).Data
		require.Len(t, list, 1)
		assert.Equal(t, "v2", list[0].ValidatorID)
		assert.Contains(t, rec.Header().Get("Link"), `rel="prev"`)
		assert.Contains(t, rec.Header().Get("Link"), `rel="next"`)
	})

	t.Run("it lists the delegators of a validator", func(t *testing.T) {
		t.Parallel()

		// Arrange
		s := newTestServer(t).withValidator("v1", 0)
		s.withDelegation("bob", "v1", "10").withDelegation("alice", "v1", "10")

		// Act
		rec := s.mustDo(http.MethodGet, "/validators/v1/delegators", "", http.StatusOK)

		// Assert
		assert.Equal(t, []string{"alice", "bob"}, decode[api.ListResponse[string]](t, rec).Data)
	})
}

func TestDelegationRoutes(t *testing.T) {
	t.Parallel()

	t.Run("it mints receipt at the initial rate", func(t *testing.T) {
		t.Parallel()

		// Arrange
		s := newTestServer(t).withValidator("v1", 1000)

		// Act
		rec := s.mustDo(http.MethodPost, "/delegations", `{"delegator_id":"alice","validator_id":"v1","amount":"1000"}`, http.StatusCreated)

		// Assert
		res := decode[api.DelegateResponse](t, rec)
		assert.Equal(t, "1000", res.ReceiptMinted)
		assert.Equal(t, "1000000000000000000", res.ExchangeRate)
		assert.Equal(t, "1000", res.Delegation.Amount)
	})

	t.Run("it answers 200 on a top-up", func(t *testing.T) {
		t.Parallel()

		// Arrange
		s := newTestServer(t).withValidator("v1", 0).withDelegation("alice", "v1", "100")

		// Act
		rec := s.mustDo(http.MethodPost, "/delegations", `{"delegator_id":"alice","validator_id":"v1","amount":"50"}`, http.StatusOK)

		// Assert
		assert.Equal(t, "150", decode[api.DelegateResponse](t, rec).Delegation.Amount)
	})

	t.Run("it maps ledger errors to status codes", func(t *testing.T) {
		t.Parallel()

		// Arrange
		s := newTestServer(t).withValidator("v1", 0)

		testCases := []struct {
			name string
			body string
			code int
		}{
			{name: "unknown validator", body: `{"delegator_id":"alice","validator_id":"ghost","amount":"10"}`, code: http.StatusNotFound},
			{name: "zero amount", body: `{"delegator_id":"alice","validator_id":"v1","amount":"0"}`, code: http.StatusBadRequest},
			{name: "malformed amount", body: `{"delegator_id":"alice","validator_id":"v1","amount":"ten"}`, code: http.StatusBadRequest},
			{name: "empty body", body: "", code: http.StatusBadRequest},
		}

		for _, tc := range testCases {
			// Act
			rec := s.do(http.MethodPost, "/delegations", tc.body)

			// Assert
			assert.Equal(t, tc.code, rec.Code, tc.name)
		}
	})

	t.Run("it returns a single position", func(t *testing.T) {
		t.Parallel()

		// Arrange
		s := newTestServer(t).withValidator("v1", 0).withDelegation("alice", "v1", "100")

		// Act
		found := s.do(http.MethodGet, "/delegations/alice/v1", "")
		missing := s.do(http.MethodGet, "/delegations/bob/v1", "")

		// Assert
		assert.Equal(t, http.StatusOK, found.Code)
		assert.Equal(t, "100", decode[api.Delegation](t, found).ReceiptBalance)
		assertError(t, missing, http.StatusNotFound, "no delegation")
	})

	t.Run("it lists a delegator's positions", func(t *testing.T) {
		t.Parallel()

		// Arrange
		s := newTestServer(t).withValidator("v1", 0).withValidator("v2", 0)
		s.withDelegation("alice", "v2", "5").withDelegation("alice", "v1", "7")

		// Act
		rec := s.mustDo(http.MethodGet, "/delegators/alice/delegations", "", http.StatusOK)

		// Assert
		list := decode[api.ListResponse[api.Delegation]](t, rec).Data
		require.Len(t, list, 2)
		assert.Equal(t, "v1", list[0].ValidatorID)
	})
}

func TestUndelegationRoutes(t *testing.T) {
	t.Parallel()

	t.Run("it walks a request through cooldown to completion", func(t *testing.T) {
		t.Parallel()

		// Arrange
		s := newTestServer(t).withValidator("v1", 0).withDelegation("alice", "v1", "100")
		created := s.mustDo(http.MethodPost, "/undelegations", `{"delegator_id":"alice","validator_id":"v1","receipt_amount":"100"}`, http.StatusCreated)
		req := decode[api.Undelegation](t, created)

		// Act
		early := s.do(http.MethodPost, "/undelegations/"+req.ID+"/complete", "")
		s.clock.Advance(ledger.DefaultCooldown)
		done := s.do(http.MethodPost, "/undelegations/"+req.ID+"/complete", "")
		again := s.do(http.MethodPost, "/undelegations/"+req.ID+"/complete", "")

		// Assert
		assert.Equal(t, "pending", req.Status)
		assert.Equal(t, genesis.Add(ledger.DefaultCooldown).Format(time.RFC3339), req.AvailableAt)
		assertError(t, early, http.StatusConflict, "cooldown active")
		require.Equal(t, http.StatusOK, done.Code)
		assert.Equal(t, "completed", decode[api.Undelegation](t, done).Status)
		assertError(t, again, http.StatusConflict, "already processed")
		assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/delegations/alice/v1", "").Code)
	})

	t.Run("it only lets the owner cancel", func(t *testing.T) {
		t.Parallel()

		// Arrange
		s := newTestServer(t).withValidator("v1", 0).withDelegation("alice", "v1", "100")
		req := decode[api.Undelegation](t, s.mustDo(http.MethodPost, "/undelegations",
			`{"delegator_id":"alice","validator_id":"v1","receipt_amount":"40"}`, http.StatusCreated))

		// Act
		foreign := s.do(http.MethodPost, "/undelegations/"+req.ID+"/cancel", `{"caller_id":"mallory"}`)
		owner := s.do(http.MethodPost, "/undelegations/"+req.ID+"/cancel", `{"caller_id":"alice"}`)

		// Assert
		assertError(t, foreign, http.StatusForbidden, "does not own")
		require.Equal(t, http.StatusOK, owner.Code)
		assert.Equal(t, "cancelled", decode[api.Undelegation](t, owner).Status)
		assert.Equal(t, "100", decode[api.Delegation](t, s.do(http.MethodGet, "/delegations/alice/v1", "")).ReceiptBalance)
	})

	t.Run("it filters a delegator's requests by status", func(t *testing.T) {
		t.Parallel()

		// Arrange
		s := newTestServer(t).withValidator("v1", 0).withDelegation("alice", "v1", "100")
		first := decode[api.Undelegation](t, s.mustDo(http.MethodPost, "/undelegations",
			`{"delegator_id":"alice","validator_id":"v1","receipt_amount":"10"}`, http.StatusCreated))
		s.mustDo(http.MethodPost, "/undelegations", `{"delegator_id":"alice","validator_id":"v1","receipt_amount":"10"}`, http.StatusCreated)
		s.mustDo(http.MethodPost, "/undelegations/"+first.ID+"/cancel", `{"caller_id":"alice"}`, http.StatusOK)

		// Act
		pending := s.mustDo(http.MethodGet, "/delegators/alice/undelegations?status=pending", "", http.StatusOK)
		all := s.mustDo(http.MethodGet, "/delegators/alice/undelegations", "", http.StatusOK)
		bad := s.do(http.MethodGet, "/delegators/alice/undelegations?status=expired", "")

		// Assert
		assert.Len(t, decode[api.ListResponse[api.Undelegation]](t, pending).Data, 1)
		assert.Len(t, decode[api.ListResponse[api.Undelegation]](t, all).Data, 2)
		assert.Equal(t, http.StatusBadRequest, bad.Code)
	})

	t.Run("it returns 404 for unknown requests", func(t *testing.T) {
		t.Parallel()

		// Arrange
		s := newTestServer(t)

		// Act & Assert
		assertError(t, s.do(http.MethodGet, "/undelegations/nope", ""), http.StatusNotFound, "not found")
		assertError(t, s.do(http.MethodPost, "/undelegations/nope/complete", ""), http.StatusNotFound, "not found")
	})
}

func TestReceiptRoutes(t *testing.T) {
	t.Parallel()

	t.Run("it withdraws and transfers receipt", func(t *testing.T) {
		t.Parallel()

		// Arrange
		s := newTestServer(t).withValidator("v1", 0).withDelegation("alice", "v1", "100")

		// Act
		s.mustDo(http.MethodPost, "/withdrawals", `{"delegator_id":"alice","validator_id":"v1","amount":"60"}`, http.StatusOK)
		s.mustDo(http.MethodPost, "/transfers", `{"from":"alice","to":"bob","amount":"25"}`, http.StatusOK)
		overdraw := s.do(http.MethodPost, "/transfers", `{"from":"alice","to":"bob","amount":"36"}`)

		// Assert
		alice := decode[api.ReceiptBalance](t, s.mustDo(http.MethodGet, "/balances/alice", "", http.StatusOK))
		assert.Equal(t, "35", alice.Free)
		assert.Equal(t, "40", alice.Locked)
		assert.Equal(t, "75", alice.Total)

		bob := decode[api.ReceiptBalance](t, s.mustDo(http.MethodGet, "/balances/bob", "", http.StatusOK))
		assert.Equal(t, "25", bob.Free)
		assert.Equal(t, "25", bob.BaseValue)

		assertError(t, overdraw, http.StatusConflict, "insufficient free receipt")
	})
}

func TestRewardRoutes(t *testing.T) {
	t.Parallel()

	t.Run("it distributes and claims rewards", func(t *testing.T) {
		t.Parallel()

		// Arrange
		s := newTestServer(t).withValidator("v1", 1000)
		s.withDelegation("alice", "v1", "300").withDelegation("bob", "v1", "100")

		// Act
		rec := s.mustDo(http.MethodPost, "/rewards/distribute", `{"validator_id":"v1","amount":"1000"}`, http.StatusOK)
		claim := s.mustDo(http.MethodPost, "/rewards/claim", `{"delegator_id":"alice"}`, http.StatusOK)

		// Assert
		d := decode[api.Distribution](t, rec)
		assert.Equal(t, "100", d.Commission)
		assert.Equal(t, "900", d.DelegatorRewards)
		assert.Equal(t, "900", d.Distributed)
		assert.Equal(t, "0", d.Dust)
		assert.Len(t, d.Shares, 2)
		assert.Equal(t, "675", decode[api.Claim](t, claim).Claimed)
	})

	t.Run("it rejects claims for a missing position", func(t *testing.T) {
		t.Parallel()

		// Arrange
		s := newTestServer(t).withValidator("v1", 0)

		// Act
		rec := s.do(http.MethodPost, "/rewards/claim", `{"delegator_id":"alice","validator_id":"v1"}`)

		// Assert
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestPoolRoutes(t *testing.T) {
	t.Parallel()

	t.Run("it reports pool state and stats", func(t *testing.T) {
		t.Parallel()

		// Arrange
		s := newTestServer(t).withValidator("v1", 0).withDelegation("alice", "v1", "100")

		// Act
		pool := decode[api.Pool](t, s.mustDo(http.MethodGet, "/pool", "", http.StatusOK))
		stats := decode[api.Stats](t, s.mustDo(http.MethodGet, "/stats", "", http.StatusOK))

		// Assert
		assert.Equal(t, "100", pool.TotalDelegated)
		assert.Equal(t, "100", pool.TotalReceiptSupply)
		assert.Equal(t, 1, stats.ValidatorCount)
		assert.Equal(t, 1, stats.DelegationCount)
		assert.Equal(t, "100", stats.LockedReceipt)
	})
}
