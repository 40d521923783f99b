package netlink

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnmanaged_WaitsForInterface(t *testing.T) {
	calls := 0
	u := &Unmanaged{
		Poll: time.Millisecond,
		Interfaces: func() ([]Interface, error) {
			calls++
			if calls < 3 {
				return []Interface{{Name: "lo", Up: true, Loop: true, Addrs: 1}, {Name: "wlan0"}}, nil
			}
			return []Interface{{Name: "wlan0", Up: true, Addrs: 1}}, nil
		},
	}

	require.NoError(t, u.Connect(context.Background(), "ssid", "psk"))
	assert.Equal(t, 3, calls)
}

func TestUnmanaged_Cancelled(t *testing.T) {
	u := &Unmanaged{
		Poll:       time.Millisecond,
		Interfaces: func() ([]Interface, error) { return nil, nil },
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := u.Connect(ctx, "home", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, err.Error(), "home")
}

func TestLinkFunc(t *testing.T) {
	var got string
	l := LinkFunc(func(_ context.Context, ssid, psk string) error {
		got = ssid + "/" + psk
		return nil
	})
	require.NoError(t, l.Connect(context.Background(), "a", "b"))
	assert.Equal(t, "a/b", got)
}
