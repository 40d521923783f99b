package sink

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/i2c/i2ctest"

	"github.com/wippyai/ledhost/errors"
	"github.com/wippyai/ledhost/led"
	"github.com/wippyai/ledhost/sink/mocks"
)

func TestStrip_Apply(t *testing.T) {
	ctrl := gomock.NewController(t)
	driver := mocks.NewMockStripDriver(ctrl)

	c := led.RGB(10, 20, 30)
	gomock.InOrder(
		driver.EXPECT().SetRange(5, 9, []led.Color{c, c, c, c, c}).Return(nil),
		driver.EXPECT().Flush().Return(nil),
	)

	s := NewStrip(driver)
	require.NoError(t, s.Apply(context.Background(), led.Solid(led.Range{Start: 5, End: 9}, c)))
}

func TestStrip_Buffered(t *testing.T) {
	ctrl := gomock.NewController(t)
	driver := mocks.NewMockStripDriver(ctrl)

	colors := []led.Color{led.RGB(1, 2, 3), led.RGB(4, 5, 6), led.RGB(7, 8, 9)}
	driver.EXPECT().SetRange(0, 2, colors).Return(nil)
	driver.EXPECT().Flush().Return(nil)

	u, err := led.Each(led.Range{Start: 0, End: 2}, colors)
	require.NoError(t, err)
	require.NoError(t, NewStrip(driver).Apply(context.Background(), u))
}

func TestStrip_Errors(t *testing.T) {
	boom := stderrors.New("spi write")

	t.Run("set range", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		driver := mocks.NewMockStripDriver(ctrl)
		driver.EXPECT().SetRange(gomock.Any(), gomock.Any(), gomock.Any()).Return(boom)

		err := NewStrip(driver).Apply(context.Background(), led.Solid(led.Full(4), led.RGB(1, 1, 1)))
		assert.ErrorIs(t, err, errors.ErrHardware)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("flush", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		driver := mocks.NewMockStripDriver(ctrl)
		driver.EXPECT().SetRange(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
		driver.EXPECT().Flush().Return(boom)

		err := NewStrip(driver).Apply(context.Background(), led.Solid(led.Full(4), led.RGB(1, 1, 1)))
		assert.ErrorIs(t, err, errors.ErrHardware)
	})
}

func TestI2C_Encode(t *testing.T) {
	s, err := NewI2C(nil, 88)
	require.NoError(t, err)

	tests := []struct {
		name string
		u    led.Update
		want []byte
	}{
		{
			name: "unbuffered addresses start",
			u:    led.Solid(led.Range{Start: 2, End: 4}, led.RGB(10, 20, 30)),
			want: []byte{0, 2, 4, 10, 20, 30},
		},
		{
			name: "buffered addresses count plus start",
			u: led.Update{
				Range:  led.Range{Start: 2, End: 3},
				Mode:   led.Buffered,
				Colors: []led.Color{led.RGB(1, 2, 3), led.RGB(4, 5, 6)},
			},
			want: []byte{0, 90, 3, 1, 2, 3, 4, 5, 6},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Encode(tt.u)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err = s.Encode(led.Update{Range: led.Range{Start: 0, End: 2}, Mode: led.Buffered, Colors: []led.Color{{}}})
	assert.Error(t, err)
}

func TestNewI2C_Validation(t *testing.T) {
	_, err := NewI2C(nil, 0)
	assert.ErrorIs(t, err, errors.ErrConfig)
	_, err = NewI2C(nil, led.MaxCount+1)
	assert.ErrorIs(t, err, errors.ErrConfig)
	_, err = NewI2C(nil, 88, WithAddress(0x80))
	assert.ErrorIs(t, err, errors.ErrConfig)
}

func TestI2C_Apply(t *testing.T) {
	ctrl := gomock.NewController(t)
	bus := mocks.NewMockBus(ctrl)
	bus.EXPECT().Tx(uint16(0x22), []byte{0, 1, 1, 9, 9, 9}, nil).Return(nil)

	s, err := NewI2C(bus, 88, WithAddress(0x22))
	require.NoError(t, err)
	require.NoError(t, s.Apply(context.Background(), led.Solid(led.Range{Start: 1, End: 1}, led.RGB(9, 9, 9))))
}

func TestI2C_Record(t *testing.T) {
	rec := &i2ctest.Record{}
	s, err := NewI2C(rec, 88)
	require.NoError(t, err)

	u, err := led.Each(led.Range{Start: 2, End: 2}, []led.Color{led.RGB(7, 8, 9)})
	require.NoError(t, err)
	require.NoError(t, s.Apply(context.Background(), u))

	require.Len(t, rec.Ops, 1)
	assert.Equal(t, DefaultAddress, rec.Ops[0].Addr)
	assert.Equal(t, []byte{0, 90, 2, 7, 8, 9}, rec.Ops[0].W)
}

func TestI2C_Nack(t *testing.T) {
	ctrl := gomock.NewController(t)
	bus := mocks.NewMockBus(ctrl)
	nack := stderrors.New("i2c: nack")
	bus.EXPECT().Tx(gomock.Any(), gomock.Any(), gomock.Any()).Return(nack)

	s, err := NewI2C(bus, 88)
	require.NoError(t, err)

	err = s.Apply(context.Background(), led.Solid(led.Full(88), led.RGB(1, 1, 1)))
	assert.ErrorIs(t, err, errors.ErrBus)
	assert.ErrorIs(t, err, nack)
}

func TestI2C_Timeout(t *testing.T) {
	ctrl := gomock.NewController(t)
	bus := mocks.NewMockBus(ctrl)
	release := make(chan struct{})
	bus.EXPECT().Tx(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(func(uint16, []byte, []byte) error {
		<-release
		return nil
	}).Times(1)

	s, err := NewI2C(bus, 88, WithTimeout(5*time.Millisecond))
	require.NoError(t, err)
	u := led.Solid(led.Full(88), led.RGB(1, 1, 1))

	err = s.Apply(context.Background(), u)
	assert.ErrorIs(t, err, errors.ErrBus)

	// The stuck transaction keeps the bus; the next update fails fast.
	err = s.Apply(context.Background(), u)
	assert.ErrorIs(t, err, errors.ErrBus)

	close(release)
	require.Eventually(t, func() bool { return !s.busy.Load() }, time.Second, time.Millisecond)
}

func TestI2C_ApplyCancelled(t *testing.T) {
	ctrl := gomock.NewController(t)
	bus := mocks.NewMockBus(ctrl)
	release := make(chan struct{})
	bus.EXPECT().Tx(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(func(uint16, []byte, []byte) error {
		<-release
		return nil
	}).Times(1)

	s, err := NewI2C(bus, 88, WithTimeout(time.Minute))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(5 * time.Millisecond)
		cancel()
	}()
	err = s.Apply(ctx, led.Solid(led.Full(88), led.RGB(1, 1, 1)))
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, errors.ErrBus, "cancellation is not a bus failure")

	close(release)
	require.Eventually(t, func() bool { return !s.busy.Load() }, time.Second, time.Millisecond)
}

func TestPolicy(t *testing.T) {
	p, err := ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyAbort, p)

	p, err = ParsePolicy("skip")
	require.NoError(t, err)
	assert.Equal(t, PolicySkip, p)

	_, err = ParsePolicy("retry")
	assert.ErrorIs(t, err, errors.ErrConfig)

	assert.True(t, PolicySkip.Tolerates(errors.BusTimeout(0x10, nil)))
	assert.True(t, PolicySkip.Tolerates(errors.StripWrite("flush", nil)))
	assert.False(t, PolicySkip.Tolerates(errors.InvalidRange(4, 2, 88)))
	assert.False(t, PolicySkip.Tolerates(stderrors.New("plain")))
	assert.False(t, PolicyAbort.Tolerates(errors.BusTimeout(0x10, nil)))
}
