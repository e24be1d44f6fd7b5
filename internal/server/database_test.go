package server

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/voter-roll-extractor/internal/common"
	repo "github.com/joseph-ayodele/voter-roll-extractor/internal/repository"
)

func TestOpenJobStore_InMemory(t *testing.T) {
	ctx := context.Background()
	db, err := OpenJobStore(ctx, common.DatabaseConfig{Driver: "postgres", DSN: "postgres://nowhere"}, true, nil)
	require.NoError(t, err)
	defer db.Close(nil)

	assert.NoError(t, PingDB(db, nil, time.Second)(ctx))

	jobs := repo.NewExtractJobRepository(db, nil)
	_, err = jobs.Start(ctx, repo.StartJobRequest{ID: "0a1b2c3d", SourcePath: "a.pdf"})
	require.NoError(t, err)
	recent, err := jobs.ListRecent(ctx, 5)
	require.NoError(t, err)
	assert.Len(t, recent, 1)
}

func TestConnectDB_UnknownDriver(t *testing.T) {
	_, err := ConnectDB(context.Background(), common.DatabaseConfig{Driver: "oracle"}, nil)
	assert.Error(t, err)
}
