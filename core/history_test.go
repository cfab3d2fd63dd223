package core

import (
	"errors"
	"testing"

	"github.com/huangsam/kmetrics/internal/artifact/artifacttest"
	"github.com/huangsam/kmetrics/internal/iocache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func historyManager(store *iocache.MockHistoryStore) *iocache.MockCacheManager {
	mgr := &iocache.MockCacheManager{}
	mgr.On("GetBundleStore").Return(nil)
	mgr.On("GetHistoryStore").Return(store)
	return mgr
}

func TestRunPipelineRecordsHistory(t *testing.T) {
	f := artifacttest.Linux(t)
	cfg := fixtureConfig(t)

	store := &iocache.MockHistoryStore{}
	store.On("BeginRun", mock.Anything, cfg.Params()).Return(int64(7), nil).Once()
	store.On("RecordDescriptors", int64(7), mock.Anything).Return(nil).Once()
	store.On("RecordModelCounts", int64(7), mock.Anything).Return(nil).Once()
	store.On("EndRun", int64(7), mock.Anything, 10, false).Return(nil).Once()

	out, err := runPipeline(fixtureContext(f), cfg, historyManager(store), countsStage)
	require.NoError(t, err)
	assert.Equal(t, int64(7), out.RunID)
	store.AssertExpectations(t)
}

func TestRunPipelineFeaturesSkipsModelCounts(t *testing.T) {
	f := artifacttest.Linux(t)
	cfg := fixtureConfig(t)

	store := &iocache.MockHistoryStore{}
	store.On("BeginRun", mock.Anything, mock.Anything).Return(int64(2), nil)
	store.On("RecordDescriptors", int64(2), mock.Anything).Return(errors.New("disk full"))
	store.On("EndRun", int64(2), mock.Anything, 10, false).Return(errors.New("disk full"))

	_, err := runPipeline(fixtureContext(f), cfg, historyManager(store), featuresStage)
	require.NoError(t, err, "recording failures do not fail the run")
	store.AssertNotCalled(t, "RecordModelCounts", mock.Anything, mock.Anything)
	store.AssertExpectations(t)
}

func TestRunPipelineBeginRunFailure(t *testing.T) {
	f := artifacttest.Linux(t)
	cfg := fixtureConfig(t)

	store := &iocache.MockHistoryStore{}
	store.On("BeginRun", mock.Anything, mock.Anything).Return(int64(0), errors.New("connection refused"))

	out, err := runPipeline(fixtureContext(f), cfg, historyManager(store), countsStage)
	require.NoError(t, err)
	assert.Zero(t, out.RunID)
	store.AssertNotCalled(t, "RecordDescriptors", mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "EndRun", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestContextOptions(t *testing.T) {
	ctx := fixtureContext(artifacttest.New(t))
	assert.Zero(t, runIDFromContext(ctx))
	assert.Equal(t, int64(4), runIDFromContext(withRunID(ctx, 4)))
	assert.NotNil(t, fsFromContext(t.Context()))
}
