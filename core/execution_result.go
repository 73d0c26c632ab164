package core

// ExecutionResultBuilder accumulates the payment, session and finalize
// phases' individual ExecutionResults into the single result returned to
// the caller of a deploy, once the deploy pipeline has already resolved
// the forced-transfer decision (core/deploy_pipeline.go's
// checkForcedTransfer, which short-circuits Build entirely when it
// triggers). Grounded directly on the original's ExecutionResultBuilder
// (set_payment_execution_result/total_cost/build).
type ExecutionResultBuilder struct {
	payment   *ExecutionResult
	session   *ExecutionResult
	finalize  *ExecutionResult
}

func NewExecutionResultBuilder() *ExecutionResultBuilder {
	return &ExecutionResultBuilder{}
}

func (b *ExecutionResultBuilder) SetPaymentResult(r *ExecutionResult) { b.payment = r }
func (b *ExecutionResultBuilder) SetSessionResult(r *ExecutionResult) { b.session = r }
func (b *ExecutionResultBuilder) SetFinalizeResult(r *ExecutionResult) { b.finalize = r }

// TotalCost sums the gas consumed by the payment and session phases (the
// finalize phase is not included), used to compute the motes owed to the
// PoS rewards purse in the finalize phase.
func (b *ExecutionResultBuilder) TotalCost() uint64 {
	var total uint64
	if b.payment != nil {
		total += b.payment.Cost
	}
	if b.session != nil {
		total += b.session.Cost
	}
	return total
}

// DeployResult is the final, merged outcome returned to the caller.
type DeployResult struct {
	NewRoot    Hash
	Cost       uint64
	Error      error // the session error, or the forced-transfer error, if either occurred
	ReturnData []byte
}

// Build assembles the DeployResult: the given root and return data, the
// cost of all three phases (TotalCost plus the finalize phase's cost), and
// the session's error if it failed. It merges no effects; the deploy
// pipeline commits each phase's effects and passes in the resulting root
// (a failing or underfunded payment phase is handled upstream as a forced
// transfer and never reaches Build).
func (b *ExecutionResultBuilder) Build(newRoot Hash, returnData []byte) *DeployResult {
	res := &DeployResult{NewRoot: newRoot, Cost: b.TotalCost(), ReturnData: returnData}
	if b.session != nil && b.session.Error != nil {
		res.Error = b.session.Error
	}
	if b.finalize != nil {
		res.Cost += b.finalize.Cost
	}
	return res
}
