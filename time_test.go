package bsplit

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/splitchain/bsplit/bsplittest/assert"
	"github.com/splitchain/bsplit/errors"
)

func TestUnixTimeUnmarshal(t *testing.T) {
	cases := map[string]struct {
		raw     string
		want    UnixTime
		wantErr *errors.Error
	}{
		"number": {
			raw:  `1700000000`,
			want: 1700000000,
		},
		"zero": {
			raw:  `0`,
			want: 0,
		},
		"time string": {
			raw:  `"2023-11-14T22:13:20Z"`,
			want: 1700000000,
		},
		"negative number": {
			raw:     `-5`,
			wantErr: errors.ErrInput,
		},
		"garbage": {
			raw:     `"not a time"`,
			wantErr: errors.ErrInput,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			var got UnixTime
			err := json.Unmarshal([]byte(tc.raw), &got)
			if !tc.wantErr.Is(err) {
				t.Fatalf("unexpected error: %+v", err)
			}
			if err == nil {
				assert.Equal(t, tc.want, got)
			}
		})
	}
}

func TestUnixTimeAdd(t *testing.T) {
	var at UnixTime = 1000
	assert.Equal(t, UnixTime(1090), at.Add(90*time.Second))
	// sub-second durations are truncated
	assert.Equal(t, UnixTime(1000), at.Add(999*time.Millisecond))
	assert.Equal(t, UnixTime(910), at.Add(-90*time.Second))
}

func TestIsExpired(t *testing.T) {
	now := time.Unix(1700000000, 0)
	ctx := WithBlockTime(context.Background(), now)

	if !IsExpired(ctx, AsUnixTime(now.Add(-time.Minute))) {
		t.Fatal("past time must be expired")
	}
	// expiration is inclusive of the current block time
	if !IsExpired(ctx, AsUnixTime(now)) {
		t.Fatal("the current block time must be expired")
	}
	if IsExpired(ctx, AsUnixTime(now.Add(time.Minute))) {
		t.Fatal("a future time cannot be expired")
	}
}

func TestIsExpiredRequiresBlockTime(t *testing.T) {
	assert.Panics(t, func() {
		IsExpired(context.Background(), 123)
	})
}
