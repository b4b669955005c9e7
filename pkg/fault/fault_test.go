package fault_test

import (
	"testing"

	"github.com/pkg/errors"
	. "github.com/pseudomuto/txkeeper/pkg/fault"
	"github.com/stretchr/testify/require"
)

func TestError(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")

	t.Run("with attempts", func(t *testing.T) {
		err := New(KindConnection, "acquire", 3, cause)
		require.Equal(t, "connection fault during acquire after 3 attempt(s): dial tcp: connection refused", err.Error())
		require.Same(t, cause, errors.Cause(err))
		require.ErrorIs(t, err, cause)
	})

	t.Run("without attempts", func(t *testing.T) {
		err := New(KindTask, "commit", 0, cause)
		require.Equal(t, "task fault during commit: dial tcp: connection refused", err.Error())
	})
}

func TestIsKind(t *testing.T) {
	err := errors.Wrap(New(KindSchema, "read", 0, errors.New("boom")), "apply failed")

	require.True(t, IsKind(err, KindSchema))
	require.False(t, IsKind(err, KindTask))
	require.False(t, IsKind(errors.New("plain"), KindSchema))

	kind, ok := KindOf(err)
	require.True(t, ok)
	require.Equal(t, KindSchema, kind)

	_, ok = KindOf(errors.New("plain"))
	require.False(t, ok)
}

func TestClassifierFunc(t *testing.T) {
	c := ClassifierFunc(func(err error) Class { return ClassTransient })
	require.Equal(t, ClassTransient, c.Classify(errors.New("deadlock")))
	require.Equal(t, "transient", ClassTransient.String())
	require.Equal(t, "connection", ClassConnection.String())
	require.Equal(t, "permanent", ClassPermanent.String())
}
