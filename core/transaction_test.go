package core

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithTxRoundTrip(t *testing.T) {
	assert.Nil(t, TxFrom(context.Background()))

	tx := &fakeTx{}
	ctx := WithTx(context.Background(), tx)
	assert.Same(t, Tx(tx), TxFrom(ctx))
}

func TestRunTxCommitsOnSuccess(t *testing.T) {
	exec := &fakeExecutor{}

	err := RunTx(context.Background(), exec, func(txCtx context.Context) error {
		assert.NotNil(t, TxFrom(txCtx))
		return nil
	})
	require.NoError(t, err)
	require.NotNil(t, exec.lastTx)
	assert.True(t, exec.lastTx.committed)
	assert.False(t, exec.lastTx.rolledBack)
}

func TestRunTxRollsBackOnError(t *testing.T) {
	exec := &fakeExecutor{}
	boom := errors.New("boom")

	err := RunTx(context.Background(), exec, func(context.Context) error {
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.True(t, exec.lastTx.rolledBack)
	assert.False(t, exec.lastTx.committed)
}
