package api

// Amounts and exchange rates travel as base-10 integer strings. Rates are
// scaled by 10^18.

// RegisterValidatorRequest is the body of POST /validators
type RegisterValidatorRequest struct {
	ValidatorID       string  `json:"validator_id"`
	CommissionRateBps *uint32 `json:"commission_rate_bps,omitempty"`
	Description       *string `json:"description,omitempty"`
	Website           *string `json:"website,omitempty"`
}

// DelegateRequest is the body of POST /delegations
type DelegateRequest struct {
	DelegatorID string `json:"delegator_id"`
	ValidatorID string `json:"validator_id"`
	Amount      string `json:"amount"`
}

// UndelegateRequest is the body of POST /undelegations
type UndelegateRequest struct {
	DelegatorID   string `json:"delegator_id"`
	ValidatorID   string `json:"validator_id"`
	ReceiptAmount string `json:"receipt_amount"`
}

// CancelUndelegationRequest is the body of POST /undelegations/{id}/cancel
type CancelUndelegationRequest struct {
	CallerID string `json:"caller_id"`
}

// WithdrawRequest is the body of POST /withdrawals
type WithdrawRequest struct {
	DelegatorID string `json:"delegator_id"`
	ValidatorID string `json:"validator_id"`
	Amount      string `json:"amount"`
}

// TransferRequest is the body of POST /transfers
type TransferRequest struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount string `json:"amount"`
}

// DistributeRewardsRequest is the body of POST /rewards/distribute
type DistributeRewardsRequest struct {
	ValidatorID string `json:"validator_id"`
	Amount      string `json:"amount"`
}

// ClaimRewardsRequest is the body of POST /rewards/claim. An empty
// validator_id claims across all positions.
type ClaimRewardsRequest struct {
	DelegatorID string `json:"delegator_id"`
	ValidatorID string `json:"validator_id,omitempty"`
}

// Validator represents a validator profile in API responses
type Validator struct {
	ValidatorID        string `json:"validator_id"`
	CommissionRateBps  uint32 `json:"commission_rate_bps"`
	TotalDelegated     string `json:"total_delegated"`
	DelegatorCount     uint64 `json:"delegator_count"`
	RewardsDistributed string `json:"rewards_distributed"`
	CommissionEarned   string `json:"commission_earned"`
	Description        string `json:"description"`
	Website            string `json:"website"`
	CreatedAt          string `json:"created_at"`
	UpdatedAt          string `json:"updated_at"`
}

// Delegation represents a position in API responses
type Delegation struct {
	DelegatorID     string `json:"delegator_id"`
	ValidatorID     string `json:"validator_id"`
	Amount          string `json:"amount"`
	ReceiptBalance  string `json:"receipt_balance"`
	PendingRewards  string `json:"pending_rewards"`
	DelegatedAt     string `json:"delegated_at"`
	LastRewardClaim string `json:"last_reward_claim"`
}

// DelegateResponse is returned by POST /delegations
type DelegateResponse struct {
	Delegation     Delegation `json:"delegation"`
	ReceiptMinted  string     `json:"receipt_minted"`
	ExchangeRate   string     `json:"exchange_rate"`
	SettledRewards string     `json:"settled_rewards"`
}

// Undelegation represents an undelegation request in API responses
type Undelegation struct {
	ID            string `json:"id"`
	DelegatorID   string `json:"delegator_id"`
	ValidatorID   string `json:"validator_id"`
	Amount        string `json:"amount"`
	ReceiptAmount string `json:"receipt_amount"`
	RequestedAt   string `json:"requested_at"`
	AvailableAt   string `json:"available_at"`
	ProcessedAt   string `json:"processed_at,omitempty"`
	Status        string `json:"status"`
}

// Withdrawal echoes a receipt withdrawal
type Withdrawal struct {
	DelegatorID string `json:"delegator_id"`
	ValidatorID string `json:"validator_id"`
	Amount      string `json:"amount"`
}

// Transfer echoes a receipt transfer
type Transfer struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount string `json:"amount"`
}

// ReceiptBalance represents an address's receipt holdings
type ReceiptBalance struct {
	Address   string `json:"address"`
	Free      string `json:"free"`
	Locked    string `json:"locked"`
	Total     string `json:"total"`
	BaseValue string `json:"base_value"`
}

// Share is one delegator's part of a distribution
type Share struct {
	DelegatorID string `json:"delegator_id"`
	Amount      string `json:"amount"`
}

// Distribution is returned by POST /rewards/distribute
type Distribution struct {
	ValidatorID      string  `json:"validator_id"`
	TotalRewards     string  `json:"total_rewards"`
	Commission       string  `json:"commission"`
	DelegatorRewards string  `json:"delegator_rewards"`
	Distributed      string  `json:"distributed"`
	Dust             string  `json:"dust"`
	Shares           []Share `json:"shares"`
	PreviousRate     string  `json:"previous_rate"`
	ExchangeRate     string  `json:"exchange_rate"`
}

// Claim is returned by POST /rewards/claim
type Claim struct {
	DelegatorID string `json:"delegator_id"`
	ValidatorID string `json:"validator_id,omitempty"`
	Claimed     string `json:"claimed"`
}

// Pool represents the global pool state
type Pool struct {
	TotalDelegated         string `json:"total_delegated"`
	TotalReceiptSupply     string `json:"total_receipt_supply"`
	ExchangeRate           string `json:"exchange_rate"`
	RewardsAccumulated     string `json:"rewards_accumulated"`
	LastExchangeRateUpdate string `json:"last_exchange_rate_update"`
}

// Stats is returned by GET /stats
type Stats struct {
	Pool                 Pool   `json:"pool"`
	ValidatorCount       int    `json:"validator_count"`
	DelegationCount      int    `json:"delegation_count"`
	DelegatorCount       int    `json:"delegator_count"`
	PendingUndelegations int    `json:"pending_undelegations"`
	LockedReceipt        string `json:"locked_receipt"`
	FreeReceipt          string `json:"free_receipt"`
	PendingReceipt       string `json:"pending_receipt"`
}

// ListResponse wraps collection responses
type ListResponse[T any] struct {
	Data []T `json:"data"`
}
