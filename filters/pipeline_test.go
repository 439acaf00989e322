package filters

import (
	"bytes"
	"io"
	"testing"

	"github.com/nvr-ai/filterbox/images"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPipelineDefaults(t *testing.T) {
	p := NewPipeline(nil, 0, nil)
	assert.Equal(t, DefaultSlots, p.Len())
	assert.True(t, p.Empty())
	assert.NotNil(t, p.Catalog())
}

func TestAssignClonesDefaults(t *testing.T) {
	p := NewPipeline(DefaultCatalog(), 4, nil)

	a, err := p.Assign(0, "blur")
	require.NoError(t, err)
	b, err := p.Assign(1, "blur")
	require.NoError(t, err)
	require.NotSame(t, a, b)

	a.Set("intensity", 7)
	assert.Equal(t, 1.0, b.Params["intensity"])
}

func TestAssignPreservesSameType(t *testing.T) {
	p := NewPipeline(DefaultCatalog(), 4, nil)
	_, err := p.Assign(2, "spiral")
	require.NoError(t, err)
	_, err = p.SetParam(2, "radius", 42)
	require.NoError(t, err)

	again, err := p.Assign(2, "swirl")
	require.NoError(t, err)
	assert.Equal(t, 42.0, again.Params["radius"])

	replaced, err := p.Assign(2, "invert")
	require.NoError(t, err)
	assert.Equal(t, "invert", replaced.Type())

	back, err := p.Assign(2, "spiral")
	require.NoError(t, err)
	assert.Equal(t, 150.0, back.Params["radius"])
}

func TestAssignErrors(t *testing.T) {
	p := NewPipeline(DefaultCatalog(), 4, nil)

	_, err := p.Assign(4, "blur")
	assert.True(t, errors.Is(err, ErrSlotOutOfRange))
	_, err = p.Assign(-1, "blur")
	assert.True(t, errors.Is(err, ErrSlotOutOfRange))
	_, err = p.Assign(0, "sepia")
	assert.True(t, errors.Is(err, ErrNotFound))

	slot, err := p.Slot(0)
	require.NoError(t, err)
	assert.Nil(t, slot)
}

func TestMoveTransfersInstance(t *testing.T) {
	p := NewPipeline(DefaultCatalog(), 4, nil)
	moved, err := p.Assign(0, "pixelate")
	require.NoError(t, err)
	_, err = p.Assign(3, "invert")
	require.NoError(t, err)

	require.NoError(t, p.Move(0, 3))

	src, _ := p.Slot(0)
	dst, _ := p.Slot(3)
	assert.Nil(t, src)
	assert.Same(t, moved, dst)

	require.NoError(t, p.Move(1, 3), "moving an empty slot is a no-op")
	dst, _ = p.Slot(3)
	assert.Same(t, moved, dst)

	require.NoError(t, p.Move(3, 3))
	dst, _ = p.Slot(3)
	assert.Same(t, moved, dst)

	assert.True(t, errors.Is(p.Move(0, 9), ErrSlotOutOfRange))
}

func TestSwapAndRemove(t *testing.T) {
	p := NewPipeline(DefaultCatalog(), 4, nil)
	_, _ = p.Assign(0, "invert")
	_, _ = p.Assign(1, "blur")

	require.NoError(t, p.Swap(0, 1))
	assert.Equal(t, []string{"blur", "invert", "", ""}, p.Preset().Types())

	require.NoError(t, p.Remove(0))
	assert.Equal(t, []string{"", "invert", "", ""}, p.Preset().Types())

	p.Clear()
	assert.True(t, p.Empty())
}

func TestSetParam(t *testing.T) {
	p := NewPipeline(DefaultCatalog(), 4, nil)
	_, err := p.SetParam(0, "intensity", 3)
	assert.True(t, errors.Is(err, ErrEmptySlot))

	_, _ = p.Assign(0, "blur")
	v, err := p.SetParam(0, "intensity", 30)
	require.NoError(t, err)
	assert.Equal(t, 10.0, v)

	_, err = p.SetParam(0, "radius", 3)
	assert.True(t, errors.Is(err, ErrUnknownParam))
}

func TestSetParamsClampsEveryValue(t *testing.T) {
	p := NewPipeline(DefaultCatalog(), 4, nil)
	_, err := p.SetParams(1, map[string]float64{"radius": 10})
	assert.True(t, errors.Is(err, ErrEmptySlot))

	_, _ = p.Assign(1, "spiral")
	cfg, err := p.SetParams(1, map[string]float64{"radius": 999, "angle": 1.5})
	require.NoError(t, err)
	assert.Equal(t, 300.0, cfg.Params["radius"])
	assert.Equal(t, 1.5, cfg.Params["angle"])

	_, err = p.SetParams(9, nil)
	assert.True(t, errors.Is(err, ErrSlotOutOfRange))
}

func TestSetParamsUnknownNameLeavesSlotUnchanged(t *testing.T) {
	p := NewPipeline(DefaultCatalog(), 4, nil)
	_, _ = p.Assign(0, "blur")

	_, err := p.SetParams(0, map[string]float64{"intensity": 7, "bogus": 1})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownParam))

	cfg, err := p.Slot(0)
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"intensity": defaultBlurIntensity}, cfg.Params)
}

func TestNilLoggerIsSilent(t *testing.T) {
	p := NewPipeline(nil, 0, nil)
	l, ok := p.logger.(*logrus.Logger)
	require.True(t, ok)
	assert.Equal(t, io.Discard, l.Out)
}

func TestApplyEmptyPipelineIsIdentity(t *testing.T) {
	p := NewPipeline(DefaultCatalog(), 4, nil)
	img := testImage(t, 5, 4)
	orig := img.Clone()
	p.Apply(img)
	assert.Equal(t, orig.Data, img.Data)
}

func TestApplyNoRedScenario(t *testing.T) {
	p := NewPipeline(DefaultCatalog(), 4, nil)
	_, err := p.Assign(1, "noRed")
	require.NoError(t, err)

	img, err := images.FromPixels(4, 1, []byte{
		200, 10, 10, 255,
		10, 200, 10, 255,
		10, 10, 200, 255,
		50, 50, 50, 255,
	})
	require.NoError(t, err)
	p.Apply(img)

	assert.Equal(t, []byte{
		0, 10, 10, 255,
		0, 200, 10, 255,
		0, 10, 200, 255,
		0, 50, 50, 255,
	}, img.Data)
}

func TestApplyIsOrderSensitive(t *testing.T) {
	// A black column beside a white one; the blur window covers both, so the
	// mean lands on a rounding tie.
	src, err := images.FromPixels(2, 2, []byte{
		0, 0, 0, 255, 255, 255, 255, 255,
		0, 0, 0, 255, 255, 255, 255, 255,
	})
	require.NoError(t, err)

	a := NewPipeline(DefaultCatalog(), 4, nil)
	_, _ = a.Assign(0, "invert")
	_, _ = a.Assign(1, "blur")

	b := NewPipeline(DefaultCatalog(), 4, nil)
	_, _ = b.Assign(0, "blur")
	_, _ = b.Assign(1, "invert")

	outA, outB := src.Clone(), src.Clone()
	a.Apply(outA)
	b.Apply(outB)
	assert.NotEqual(t, outA.Data, outB.Data)
	assert.Equal(t, uint8(128), outA.Data[0])
	assert.Equal(t, uint8(127), outB.Data[0])
}

func TestApplySkipsUnknownSlot(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetLevel(logrus.DebugLevel)

	p := NewPipeline(DefaultCatalog(), 4, logger)
	require.NoError(t, p.Set(0, &Config{rawType: "sepia"}))
	_, _ = p.Assign(1, "noRed")

	img := testImage(t, 2, 2)
	p.Apply(img)

	for i := 0; i < len(img.Data); i += 4 {
		assert.Zero(t, img.Data[i])
	}
	assert.Contains(t, buf.String(), "skipping unknown filter")
	assert.Contains(t, buf.String(), "sepia")
}

func TestCloneIsIndependent(t *testing.T) {
	p := NewPipeline(ExtendedCatalog(), 4, nil)
	_, _ = p.Assign(0, "colorFade")
	clone := p.Clone()

	p.Apply(testImage(t, 2, 2))

	orig, _ := p.Slot(0)
	copied, _ := clone.Slot(0)
	assert.InDelta(t, 0.05, orig.Params["phase"], 1e-12)
	assert.Equal(t, 0.0, copied.Params["phase"])
}

func TestPresetRoundTripThroughPipeline(t *testing.T) {
	p := NewPipeline(DefaultCatalog(), 4, nil)
	_, _ = p.Assign(0, "edgeDetect")
	_, _ = p.Assign(2, "pixelate")
	_, _ = p.SetParam(2, "pixelSize", 12)

	preset := p.Preset()
	q := NewPipeline(DefaultCatalog(), 4, nil)
	require.NoError(t, q.Load(preset))
	assert.Equal(t, preset, q.Preset())

	preset[2].Set("pixelSize", 3)
	slot, _ := q.Slot(2)
	assert.Equal(t, 12.0, slot.Params["pixelSize"])

	assert.True(t, errors.Is(q.Load(make(Preset, 5)), ErrSlotOutOfRange))
}
