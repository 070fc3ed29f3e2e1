package service

import (
	"testing"

	"growvest/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildChain creates a referral chain a <- b <- c <- d (d referred by c,
// c by b, b by a) and returns the users root-first.
func buildChain(t *testing.T, env *testEnv, depth int) []uint {
	ids := make([]uint, 0, depth)
	var parent *uint
	for i := 0; i < depth; i++ {
		u := env.createUser(t, parent)
		ids = append(ids, u.ID)
		parent = &u.ID
	}
	return ids
}

func TestDistributeWalksTheChain(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.settingRepo.Set(domain.SettingReferralRates, "10,5,2"))
	require.NoError(t, env.settingRepo.Set(domain.SettingReferralMaxDepth, "3"))

	ids := buildChain(t, env, 4) // a, b, c, d
	a, b, c, d := ids[0], ids[1], ids[2], ids[3]

	paid, err := env.commission.Distribute(d, dec("1000"), 42)
	require.NoError(t, err)
	require.Len(t, paid, 3)

	assert.True(t, env.balance(t, c).Equal(dec("100")), "level 1 gets 10%%")
	assert.True(t, env.balance(t, b).Equal(dec("50")), "level 2 gets 5%%")
	assert.True(t, env.balance(t, a).Equal(dec("20")), "level 3 gets 2%%")
	assert.True(t, env.balance(t, d).IsZero(), "source user earns nothing")

	for i, row := range paid {
		assert.Equal(t, domain.TxTypeCommission, row.Type)
		assert.Equal(t, i+1, row.ReferralLevel)
		require.NotNil(t, row.SourceTransactionID)
		assert.EqualValues(t, 42, *row.SourceTransactionID)
		require.NotNil(t, row.SourceUserID)
		assert.Equal(t, d, *row.SourceUserID)
	}

	u, err := env.userRepo.GetByID(c)
	require.NoError(t, err)
	assert.True(t, u.TotalCommissions.Equal(dec("100")))
}

func TestDistributeShortChain(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.settingRepo.Set(domain.SettingReferralRates, "10,5,2"))

	ids := buildChain(t, env, 2) // a <- b
	a, b := ids[0], ids[1]

	paid, err := env.commission.Distribute(b, dec("200"), 7)
	require.NoError(t, err)
	require.Len(t, paid, 1)
	assert.True(t, env.balance(t, a).Equal(dec("20")))
}

func TestDistributeNoReferrer(t *testing.T) {
	env := newTestEnv(t)
	u := env.createUser(t, nil)
	paid, err := env.commission.Distribute(u.ID, dec("100"), 1)
	require.NoError(t, err)
	assert.Empty(t, paid)
}

func TestDistributeIsIdempotentPerSource(t *testing.T) {
	env := newTestEnv(t)
	ids := buildChain(t, env, 2)
	a, b := ids[0], ids[1]

	_, err := env.commission.Distribute(b, dec("100"), 11)
	require.NoError(t, err)
	_, err = env.commission.Distribute(b, dec("100"), 11)
	assert.ErrorIs(t, err, domain.ErrDuplicateCommission)

	// one payout, not two
	assert.True(t, env.balance(t, a).Equal(dec("10")))
	count, err := env.txRepo.CountCommissionsForSource(11)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	// a different source transaction pays out normally
	_, err = env.commission.Distribute(b, dec("100"), 12)
	require.NoError(t, err)
	assert.True(t, env.balance(t, a).Equal(dec("20")))
}

func TestDistributeSkipsInactiveAncestor(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.settingRepo.Set(domain.SettingReferralRates, "10,5,2"))
	require.NoError(t, env.settingRepo.Set(domain.SettingReferralMaxDepth, "3"))

	ids := buildChain(t, env, 4)
	a, b, c, d := ids[0], ids[1], ids[2], ids[3]
	require.NoError(t, env.userRepo.SetActive(c, false))

	paid, err := env.commission.Distribute(d, dec("1000"), 99)
	require.NoError(t, err)
	require.Len(t, paid, 2)

	// c's level is consumed, not shifted: b stays at level 2, a at level 3
	assert.True(t, env.balance(t, c).IsZero())
	assert.True(t, env.balance(t, b).Equal(dec("50")))
	assert.True(t, env.balance(t, a).Equal(dec("20")))
}

func TestDistributeRejectsNonPositiveBase(t *testing.T) {
	env := newTestEnv(t)
	u := env.createUser(t, nil)
	_, err := env.commission.Distribute(u.ID, dec("0"), 1)
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
}

func TestRateTableFallsBackOnBadSetting(t *testing.T) {
	env := newTestEnv(t)
	// increasing by level is invalid; config defaults win
	require.NoError(t, env.settingRepo.Set(domain.SettingReferralRates, "1,5,10"))

	ids := buildChain(t, env, 2)
	a, b := ids[0], ids[1]
	_, err := env.commission.Distribute(b, dec("100"), 5)
	require.NoError(t, err)
	assert.True(t, env.balance(t, a).Equal(dec("10")), "default 10%% level 1 rate applies")
}

func TestParseRates(t *testing.T) {
	cases := []struct {
		raw []string
		ok  bool
	}{
		{[]string{"10", "5", "3", "2", "1"}, true},
		{[]string{"10"}, true},
		{[]string{"5", "5"}, true},
		{[]string{"5", "10"}, false},
		{[]string{"-1"}, false},
		{[]string{"abc"}, false},
		{nil, false},
	}
	for _, tc := range cases {
		_, ok := parseRates(tc.raw)
		assert.Equal(t, tc.ok, ok, "rates %v", tc.raw)
	}
}
