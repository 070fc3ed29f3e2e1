package service

import (
	"testing"

	"growvest/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApproveDepositActivatesAndPaysCommission(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createUser(t, nil)
	referrer := env.createUser(t, nil)
	user := env.createUser(t, &referrer.ID)
	p := env.createPortfolio(t, "1", "200", 200)

	row, err := env.ledger.SubmitDeposit(user.ID, p.ID, dec("1000"), "usdt", "")
	require.NoError(t, err)

	settled, err := env.approval.Approve(row.ID, admin.ID, "verified")
	require.NoError(t, err)
	assert.Equal(t, domain.TxStatusCompleted, settled.Status)
	require.NotNil(t, settled.ApprovedByID)
	assert.Equal(t, admin.ID, *settled.ApprovedByID)

	// balance credited
	assert.True(t, env.balance(t, user.ID).Equal(dec("1000")))

	// subscription opened and bot flagged
	sub, err := env.subRepo.GetActiveByUser(user.ID)
	require.NoError(t, err)
	assert.True(t, sub.Principal.Equal(dec("1000")))
	assert.Equal(t, p.ID, sub.PortfolioID)
	u, err := env.userRepo.GetByID(user.ID)
	require.NoError(t, err)
	assert.True(t, u.BotActive)

	// level-1 commission paid to the referrer (10% default)
	assert.True(t, env.balance(t, referrer.ID).Equal(dec("100")))
}

func TestApproveIsNotReplayable(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createUser(t, nil)
	referrer := env.createUser(t, nil)
	user := env.createUser(t, &referrer.ID)
	p := env.createPortfolio(t, "1", "200", 200)

	row, err := env.ledger.SubmitDeposit(user.ID, p.ID, dec("1000"), "usdt", "")
	require.NoError(t, err)
	_, err = env.approval.Approve(row.ID, admin.ID, "")
	require.NoError(t, err)

	_, err = env.approval.Approve(row.ID, admin.ID, "")
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)

	// neither the credit nor the commission doubled
	assert.True(t, env.balance(t, user.ID).Equal(dec("1000")))
	assert.True(t, env.balance(t, referrer.ID).Equal(dec("100")))
}

func TestApproveWithdrawalDebits(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createUser(t, nil)
	user := env.createUser(t, nil)
	_, err := env.ledger.Apply(user.ID, domain.TxTypeBonus, dec("500"), ApplyContext{})
	require.NoError(t, err)

	row, err := env.ledger.SubmitWithdrawal(user.ID, dec("200"), "addr")
	require.NoError(t, err)
	settled, err := env.approval.Approve(row.ID, admin.ID, "")
	require.NoError(t, err)

	assert.Equal(t, domain.TxStatusCompleted, settled.Status)
	assert.True(t, settled.BalanceBefore.Equal(dec("500")))
	assert.True(t, settled.BalanceAfter.Equal(dec("300")))
	assert.True(t, env.balance(t, user.ID).Equal(dec("300")))

	u, err := env.userRepo.GetByID(user.ID)
	require.NoError(t, err)
	assert.True(t, u.TotalWithdrawn.Equal(dec("200")))
}

func TestApproveWithdrawalAutoRejectsWhenBalanceGone(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createUser(t, nil)
	user := env.createUser(t, nil)
	_, err := env.ledger.Apply(user.ID, domain.TxTypeBonus, dec("500"), ApplyContext{})
	require.NoError(t, err)

	row, err := env.ledger.SubmitWithdrawal(user.ID, dec("400"), "addr")
	require.NoError(t, err)

	// balance drained between submission and review
	_, err = env.ledger.Apply(user.ID, domain.TxTypePenalty, dec("450"), ApplyContext{})
	require.NoError(t, err)

	result, err := env.approval.Approve(row.ID, admin.ID, "")
	require.NoError(t, err)
	assert.Equal(t, domain.TxStatusRejected, result.Status)
	assert.Equal(t, "insufficient balance at approval time", result.RejectReason)
	assert.True(t, env.balance(t, user.ID).Equal(dec("50")))
}

func TestRejectIsBalanceNeutral(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createUser(t, nil)
	user := env.createUser(t, nil)
	p := env.createPortfolio(t, "1", "200", 200)

	row, err := env.ledger.SubmitDeposit(user.ID, p.ID, dec("500"), "usdt", "")
	require.NoError(t, err)

	rejected, err := env.approval.Reject(row.ID, admin.ID, "proof unreadable")
	require.NoError(t, err)
	assert.Equal(t, domain.TxStatusRejected, rejected.Status)
	assert.Equal(t, "proof unreadable", rejected.RejectReason)
	require.NotNil(t, rejected.RejectedByID)
	assert.Equal(t, admin.ID, *rejected.RejectedByID)

	assert.True(t, env.balance(t, user.ID).IsZero())
	_, err = env.subRepo.GetActiveByUser(user.ID)
	assert.Error(t, err, "no subscription from a rejected deposit")

	// a rejected transaction admits no further transitions
	_, err = env.approval.Approve(row.ID, admin.ID, "")
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)
	_, err = env.approval.Reject(row.ID, admin.ID, "again")
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)
}

func TestApproveRefusesAutomaticTypes(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createUser(t, nil)
	user := env.createUser(t, nil)
	row, err := env.ledger.Apply(user.ID, domain.TxTypeBonus, dec("10"), ApplyContext{})
	require.NoError(t, err)

	_, err = env.approval.Approve(row.ID, admin.ID, "")
	assert.Error(t, err)
}

func TestApproveSecondDepositDoesNotStackSubscriptions(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createUser(t, nil)
	user := env.createUser(t, nil)
	p := env.createPortfolio(t, "1", "200", 200)

	first, err := env.ledger.SubmitDeposit(user.ID, p.ID, dec("500"), "usdt", "")
	require.NoError(t, err)
	_, err = env.approval.Approve(first.ID, admin.ID, "")
	require.NoError(t, err)

	second, err := env.ledger.SubmitDeposit(user.ID, p.ID, dec("700"), "usdt", "")
	require.NoError(t, err)
	_, err = env.approval.Approve(second.ID, admin.ID, "")
	require.NoError(t, err)

	// both credits land, but the original subscription stays the only one
	assert.True(t, env.balance(t, user.ID).Equal(dec("1200")))
	sub, err := env.subRepo.GetActiveByUser(user.ID)
	require.NoError(t, err)
	assert.True(t, sub.Principal.Equal(dec("500")))
}
