package strip

import (
	"bytes"
	stderrors "errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/ledhost/led"
)

func TestBuffer(t *testing.T) {
	b := NewBuffer(4)
	red := led.RGB(255, 0, 0)

	require.NoError(t, b.SetRange(1, 2, []led.Color{red, red}))
	assert.Equal(t, make([]led.Color, 4), b.Frame(), "staged colors are not visible before flush")

	require.NoError(t, b.Flush())
	assert.Equal(t, []led.Color{{}, red, red, {}}, b.Frame())
	assert.Equal(t, uint64(1), b.Flushes())
	assert.Equal(t, []byte{0, 0, 0, 255, 0, 0, 255, 0, 0, 0, 0, 0}, b.Bytes())
}

func TestBuffer_Errors(t *testing.T) {
	b := NewBuffer(4)
	tests := []struct {
		name       string
		start, end int
		colors     int
	}{
		{"end past strip", 0, 4, 5},
		{"negative start", -1, 1, 3},
		{"reversed", 2, 1, 0},
		{"color count", 0, 1, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, b.SetRange(tt.start, tt.end, make([]led.Color, tt.colors)))
		})
	}
}

type fakePixels struct {
	writes [][]byte
	err    error
	halted bool
}

func (f *fakePixels) Write(p []byte) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.writes = append(f.writes, append([]byte(nil), p...))
	return len(p), nil
}

func (f *fakePixels) Halt() error {
	f.halted = true
	return nil
}

func TestNRZ(t *testing.T) {
	dev := &fakePixels{}
	n := newNRZ(dev, 3)

	require.NoError(t, n.SetRange(0, 2, []led.Color{led.RGB(1, 2, 3), led.RGB(4, 5, 6), led.RGB(7, 8, 9)}))
	require.NoError(t, n.Flush())
	require.Len(t, dev.writes, 1)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8, 9}, dev.writes[0])

	require.NoError(t, n.Close())
	assert.True(t, dev.halted)
}

func TestNRZ_WriteError(t *testing.T) {
	dev := &fakePixels{err: stderrors.New("spi busy")}
	n := newNRZ(dev, 2)
	err := n.Flush()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "spi busy")
}

func TestTerminal_Render(t *testing.T) {
	var out bytes.Buffer
	term := NewTerminal(&out, 88)

	require.NoError(t, term.SetRange(0, 87, make([]led.Color, 88)))
	require.NoError(t, term.Flush())
	first := out.String()
	assert.Equal(t, 2, strings.Count(first, "\n"), "88 LEDs at 44 per row")
	assert.False(t, strings.HasPrefix(first, "\x1b["), "first frame does not move the cursor")

	out.Reset()
	require.NoError(t, term.Flush())
	assert.True(t, strings.HasPrefix(out.String(), "\x1b[2A"), "later frames redraw in place")
}

func TestTerminal_ShortStrip(t *testing.T) {
	var out bytes.Buffer
	term := NewTerminal(&out, 5)
	require.NoError(t, term.Flush())
	assert.Equal(t, 1, strings.Count(out.String(), "\n"))
}
