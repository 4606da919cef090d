package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/school-records-api/pkg/errors"
)

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, nil)
	ctx := context.Background()

	var dest map[string]string
	err := repo.Get(ctx, "ledger:s1", &dest)
	assert.ErrorIs(t, err, appErrors.ErrCacheMiss)

	require.NoError(t, repo.Set(ctx, "ledger:s1", map[string]string{"a": "b"}, time.Minute))
	require.NoError(t, repo.Delete(ctx, "ledger:s1"))
	require.NoError(t, repo.DeleteByPattern(ctx, "ledger:*"))
	require.NoError(t, repo.Close())
}
