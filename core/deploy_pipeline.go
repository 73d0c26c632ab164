package core

import (
	"github.com/sirupsen/logrus"
)

// MaxPayment is the maximum a payment phase is ever allowed to cost, in
// motes — grounded on the original engine's MAX_PAYMENT constant, which
// Motes::from_u64(MAX_PAYMENT) wraps directly rather than treating as a
// gas quantity. The payment phase itself is metered in gas up to
// MaxPayment/ConvRate; what must reach the PoS payment purse before the
// session phase is allowed to run is MaxPayment motes.
const MaxPayment uint64 = 10_000_000

// ConvRate is the fixed gas-to-motes conversion rate used when computing
// how many motes a deploy's maximum payment is worth, and later when
// settling the actual cost against the payment purse.
const ConvRate uint64 = 10

// SystemAccountAddr is the all-zero address of the virtual system
// account used to run the finalize phase without per-deploy
// authorization, matching the original's SYSTEM_ACCOUNT_ADDR.
var SystemAccountAddr = Hash{}

// Deploy is a single submitted unit of work: a payment phase, a session
// phase, and the address/keys that authorize it. Matches spec.md §3's
// Deploy type.
type Deploy struct {
	Hash      Hash
	Address   Hash // the account submitting this deploy
	Signers   map[Hash]struct{}
	Payment   DeployItem
	Session   DeployItem
	GasPrice  uint64
}

// EngineConfig holds the handful of pipeline-level knobs restored from
// original_source/ (see SPEC_FULL.md Supplemented Features).
type EngineConfig struct {
	// UsePaymentCode, when false (the default), runs the normal
	// payment/session/finalize three-phase pipeline. When true, the
	// payment module is skipped and the PoS payment purse is funded
	// directly with the full MaxPayment allowance, as if a trivial
	// payment module had done it — a debug/test-network affordance
	// restored from the original engine, never a production default.
	UsePaymentCode bool
}

// Engine ties a StateProvider and Executor together and runs deploys and
// genesis against them. Grounded directly on the original's
// EngineState<S>.
type Engine struct {
	sp       *StateProvider
	executor *Executor
	cfg      EngineConfig
	log      *logrus.Entry
}

func NewEngine(sp *StateProvider, cfg EngineConfig) *Engine {
	return &Engine{
		sp:       sp,
		executor: NewExecutor(),
		cfg:      cfg,
		log:      logrus.WithField("component", "engine"),
	}
}

// RunDeploy executes a single deploy against prestateHash, returning the
// new root and a DeployResult describing cost and any error. Mirrors the
// original's `deploy()` state machine end to end: checkout, authorize,
// resolve modules, find system contracts, check minimum balance, payment,
// forced-transfer check, session, finalize, merge.
func (e *Engine) RunDeploy(prestateHash Hash, d Deploy) (*DeployResult, error) {
	log := e.log.WithField("deploy", d.Hash.String())

	tc := NewTrackingCopy(e.sp, prestateHash)

	acct, err := tc.GetAccount(d.Address)
	if err != nil {
		return nil, err
	}
	if !acct.CanDeploy(d.Signers) {
		return nil, newPrecondition(KindDeploymentAuthDenied, "signer set does not meet deployment threshold for account %s", d.Address)
	}

	sysAcct, err := tc.GetAccount(SystemAccountAddr)
	if err != nil {
		return nil, err
	}
	mintInfo, err := GetSystemContractInfo(tc, sysAcct, "mint")
	if err != nil {
		return nil, err
	}
	posInfo, err := GetSystemContractInfo(tc, sysAcct, "pos")
	if err != nil {
		return nil, err
	}
	_ = mintInfo
	paymentPurse := mustPaymentPurse(posInfo)
	rewardsPurse := mustRewardsPurse(posInfo)

	maxPaymentCost := NewU512(MaxPayment)
	mainPurseBal, err := tc.GetPurseBalance(NewURefKey(acct.MainPurse))
	if err != nil {
		return nil, err
	}
	if mainPurseBal.Cmp(maxPaymentCost) < 0 {
		return nil, newPrecondition(KindInsufficientPayment, "account %s main purse balance below max payment cost", d.Address)
	}

	builder := NewExecutionResultBuilder()
	paymentGasGen := NewAddressGenerator(d.Hash, PhasePayment)
	sessionGasGen := NewAddressGenerator(d.Hash, PhaseSession)
	finalizeGasGen := NewAddressGenerator(d.Hash, PhaseFinalize)

	// The payment phase runs against its own fork so that, if it turns
	// out to be a forced transfer, its effects never reach the tracking
	// copy the rest of the deploy is built from.
	paymentTC := tc.Fork()
	paymentGasLimit := MaxPayment / ConvRate
	var paymentResult *ExecutionResult
	if e.cfg.UsePaymentCode {
		// Debug/test-network affordance restored from the original
		// engine: skip the payment module and fund the payment purse
		// directly with the full max-payment allowance, as if a trivial
		// payment module had moved it there itself.
		if err := subFromPurseBalance(paymentTC, NewURefKey(acct.MainPurse), maxPaymentCost); err != nil {
			return nil, err
		}
		if err := addToPurseBalance(paymentTC, NewURefKey(paymentPurse), maxPaymentCost); err != nil {
			return nil, err
		}
		paymentResult = &ExecutionResult{Cost: 0, Effect: paymentTC.Effect()}
	} else {
		paymentModule, err := GetModule(tc, acct, d.Payment)
		if err != nil {
			return nil, err
		}
		paymentResult = e.executor.Exec(paymentTC, paymentGasGen, acct, d.Signers, paymentModule.Hash, paymentModule.Bytes, d.Payment.Args, paymentGasLimit)
	}
	builder.SetPaymentResult(paymentResult)

	if forced, ferr := checkForcedTransfer(paymentTC, paymentPurse, maxPaymentCost, paymentResult); forced {
		if ferr != nil {
			return nil, ferr
		}
		return e.forceTransfer(tc, log, acct, rewardsPurse, maxPaymentCost, paymentResult.Error)
	}

	if err := e.applyEffect(&tc, paymentResult.Effect); err != nil {
		return nil, err
	}

	paymentPurseBal, err := tc.GetPurseBalance(NewURefKey(paymentPurse))
	if err != nil {
		return nil, err
	}
	var sessionGasLimit uint64
	if remaining := paymentPurseBal.Big().Uint64() / ConvRate; remaining > paymentResult.Cost {
		sessionGasLimit = remaining - paymentResult.Cost
	}

	sessionModule, err := GetModule(tc, acct, d.Session)
	if err != nil {
		return nil, err
	}
	sessionTC := tc.Fork()
	sessionResult := e.executor.Exec(sessionTC, sessionGasGen, acct, d.Signers, sessionModule.Hash, sessionModule.Bytes, d.Session.Args, sessionGasLimit)
	builder.SetSessionResult(sessionResult)

	if sessionResult.Error == nil {
		if err := e.applyEffect(&tc, sessionResult.Effect); err != nil {
			return nil, err
		}
	} else {
		log.WithError(sessionResult.Error).Warn("session phase failed, discarding its effects")
	}

	finalizeTC := tc.Fork()
	costMotes := NewU512(builder.TotalCost() * ConvRate)
	finalizeArgs := [][]byte{
		[]byte("finalize_payment"),
		encodeKeyArg(NewURefKey(paymentPurse)),
		encodeKeyArg(NewURefKey(rewardsPurse)),
		costMotes.Bytes(),
		encodeKeyArg(NewURefKey(acct.MainPurse)),
	}
	finalizeResult := e.executor.ExecDirect(finalizeTC, finalizeGasGen, sysAcct, PosInstallerHash, nil, finalizeArgs, ^uint64(0))
	builder.SetFinalizeResult(finalizeResult)
	if finalizeResult.Error != nil {
		return nil, wrapExecError(KindRevert, finalizeResult.Error, "finalize phase failed")
	}
	if err := e.applyEffect(&tc, finalizeResult.Effect); err != nil {
		return nil, err
	}

	res := builder.Build(tc.root, sessionResult.ReturnData)
	log.WithFields(logrus.Fields{"cost": res.Cost, "new_root": res.NewRoot.String()}).Info("deploy finished")
	return res, nil
}

// checkForcedTransfer decides whether the payment phase leaves the PoS
// payment purse unable to cover what it owes: either the payment module
// itself failed, or it left the purse short of its own declared cost in
// motes, or short of the max-payment allowance altogether. Mirrors the
// original's check_forced_transfer(max_payment_cost,
// account_main_purse_balance, payment_purse_balance, ...) predicate. The
// second return value is a non-nil infrastructure error only when the
// purse balance itself could not be read; a true forced-transfer
// decision always returns (true, nil).
func checkForcedTransfer(paymentTC *TrackingCopy, paymentPurse URef, maxPaymentCost *U512, paymentResult *ExecutionResult) (bool, error) {
	if paymentResult.Error != nil {
		return true, nil
	}
	paymentPurseBal, err := paymentTC.GetPurseBalance(NewURefKey(paymentPurse))
	if err != nil {
		return false, err
	}
	if paymentPurseBal.Cmp(NewU512(paymentResult.Cost*ConvRate)) < 0 {
		return true, nil
	}
	if paymentPurseBal.Cmp(maxPaymentCost) < 0 {
		return true, nil
	}
	return false, nil
}

// forceTransfer is the terminal outcome of an underfunded or failed
// payment phase: the payment phase's own effects are discarded entirely,
// and the max-payment allowance moves directly from the account's main
// purse to the PoS rewards purse. No session phase and no further
// finalize call ever run in this deploy. Mirrors the original's
// ExecutionResult::precondition_failure/forced-transfer short-circuit
// inside deploy().
func (e *Engine) forceTransfer(tc *TrackingCopy, log *logrus.Entry, acct *Account, rewardsPurse URef, maxPaymentCost *U512, cause error) (*DeployResult, error) {
	log.WithError(cause).Warn("payment phase could not cover its cost, forcing transfer of max payment")
	if err := subFromPurseBalance(tc, NewURefKey(acct.MainPurse), maxPaymentCost); err != nil {
		return nil, err
	}
	if err := addToPurseBalance(tc, NewURefKey(rewardsPurse), maxPaymentCost); err != nil {
		return nil, err
	}
	res := e.sp.Commit(tc.root, tc.Effect())
	if res.Kind != CommitSuccess {
		return nil, res.Err
	}
	return &DeployResult{
		NewRoot: res.NewRoot,
		Cost:    MaxPayment,
		Error:   wrapExecError(KindForcedTransfer, cause, "payment phase could not cover its cost, forced transfer of max payment"),
	}, nil
}

// applyEffect commits a phase's buffered transforms to the state provider
// and advances the shared tracking copy to read from the new root,
// mirroring the original's commit-and-reopen-tracking-copy step between
// phases.
func (e *Engine) applyEffect(tc **TrackingCopy, effect map[Key]Transform) error {
	if len(effect) == 0 {
		return nil
	}
	res := e.sp.Commit((*tc).root, effect)
	if res.Kind != CommitSuccess {
		return res.Err
	}
	*tc = NewTrackingCopy(e.sp, res.NewRoot)
	return nil
}

func mustRewardsPurse(info *SystemContractInfo) URef {
	if k, ok := info.NamedKeys["rewards_purse"]; ok {
		if u, ok := k.AsURef(); ok {
			return u
		}
	}
	return URef{}
}

func mustPaymentPurse(info *SystemContractInfo) URef {
	if k, ok := info.NamedKeys["payment_purse"]; ok {
		if u, ok := k.AsURef(); ok {
			return u
		}
	}
	return URef{}
}
