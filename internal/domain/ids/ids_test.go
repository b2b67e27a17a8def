package ids

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewULID(t *testing.T) {
	id, err := NewULID()

	require.NoError(t, err)
	require.Len(t, id, 26)
	require.NoError(t, ValidateULID(id))
}

func TestValidateULID(t *testing.T) {
	require.NoError(t, ValidateULID("01HYX3KQW7ERTV9XNBM2P8QJZF"))
	require.NoError(t, ValidateULID(" 01hyx3kqw7ertv9xnbm2p8qjzf "))
	require.ErrorIs(t, ValidateULID("not-a-ulid"), ErrInvalidULID)
	require.ErrorIs(t, ValidateULID(""), ErrInvalidULID)
}

func TestNormalize(t *testing.T) {
	require.Equal(t, "01HYX3KQW7ERTV9XNBM2P8QJZF", Normalize(" 01hyx3kqw7ertv9xnbm2p8qjzf "))
}
