package repository

import (
	"encoding/hex"
	"strings"
	"testing"

	"growvest/internal/database"
	"growvest/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.AutoMigrate(db))
	return db
}

func TestGenerateReferralCode(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		code, err := GenerateReferralCode()
		require.NoError(t, err)
		assert.Len(t, code, 8)
		assert.Equal(t, strings.ToUpper(code), code)
		_, err = hex.DecodeString(code)
		assert.NoError(t, err, "code %q is hex", code)
		seen[code] = true
	}
	assert.Greater(t, len(seen), 45, "codes should rarely collide")
}

func TestCreateWithUniqueCodeRetriesOnCollision(t *testing.T) {
	db := openTestDB(t)
	repo := NewUserRepository(db)

	first := &models.User{Name: "A", Email: "a@example.com", Role: "USER", IsActive: true}
	require.NoError(t, repo.CreateWithUniqueCode(first))
	require.Len(t, first.ReferralCode, 8)

	// a second user with a colliding email is a hard error, not a retry
	dup := &models.User{Name: "B", Email: "a@example.com", Role: "USER", IsActive: true}
	err := repo.CreateWithUniqueCode(dup)
	assert.Error(t, err)

	second := &models.User{Name: "B", Email: "b@example.com", Role: "USER", IsActive: true}
	require.NoError(t, repo.CreateWithUniqueCode(second))
	assert.NotEqual(t, first.ReferralCode, second.ReferralCode)
}

func TestGetByReferralCodeIsCaseInsensitive(t *testing.T) {
	db := openTestDB(t)
	repo := NewUserRepository(db)

	u := &models.User{Name: "A", Email: "a@example.com", Role: "USER", IsActive: true, ReferralCode: "ABCD1234"}
	require.NoError(t, repo.Create(u))

	got, err := repo.GetByReferralCode("abcd1234")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
}

func TestIncrementReferralCounters(t *testing.T) {
	db := openTestDB(t)
	repo := NewUserRepository(db)

	root := &models.User{Name: "Root", Email: "root@example.com", Role: "USER", IsActive: true, ReferralCode: "ROOT0001"}
	require.NoError(t, repo.Create(root))
	mid := &models.User{Name: "Mid", Email: "mid@example.com", Role: "USER", IsActive: true, ReferralCode: "MID00001", ReferredByID: &root.ID}
	require.NoError(t, repo.Create(mid))

	require.NoError(t, repo.IncrementReferralCounters(mid.ID, []uint{mid.ID, root.ID}))

	gotMid, err := repo.GetByID(mid.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, gotMid.DirectReferrals)
	assert.Equal(t, 1, gotMid.TeamSize)

	gotRoot, err := repo.GetByID(root.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, gotRoot.DirectReferrals)
	assert.Equal(t, 1, gotRoot.TeamSize)
}
