package storage

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
)

func TestFirstResult(t *testing.T) {
	connErr := errors.New("connection refused")

	testCases := []struct {
		desc    string
		results []string
		err     error
		want    string
		wantErr error
	}{
		{desc: "first of many", results: []string{"a", "b"}, want: "a"},
		{desc: "empty", results: nil, wantErr: errNoResults},
		{desc: "traversal failure", results: nil, err: connErr, wantErr: connErr},
		{desc: "failure with partial results", results: []string{"a"}, err: connErr, wantErr: connErr},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			got, err := first(tc.results, tc.err)
			if tc.wantErr != nil {
				require.True(t, errors.Is(err, tc.wantErr), "unexpected error: %v", err)
				require.Empty(t, got)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}

	// A transport failure must never look like a missing object.
	_, err := first([]string(nil), connErr)
	require.False(t, errors.Is(err, errNoResults))
}
