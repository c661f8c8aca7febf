package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/photoshare/internal/config"
)

func testConfig() config.VariantsConfig {
	return config.VariantsConfig{
		SmallSize:     300,
		SmallQuality:  50,
		MediumBound:   1200,
		MediumQuality: 70,
	}
}

func encodeTestJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x += 10 {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 30, B: 30, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func decodeDims(t *testing.T, data []byte) (int, int) {
	t.Helper()
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	return cfg.Width, cfg.Height
}

func TestGenerate(t *testing.T) {
	gen := NewGenerator(testConfig())

	t.Run("large landscape image", func(t *testing.T) {
		src := encodeTestJPEG(t, 2400, 1600)

		vars, err := gen.Generate(src)
		require.NoError(t, err)

		w, h := decodeDims(t, vars.Small)
		assert.Equal(t, 300, w)
		assert.Equal(t, 300, h)

		w, h = decodeDims(t, vars.Medium)
		assert.Equal(t, 1200, w)
		assert.Equal(t, 800, h)

		assert.Equal(t, src, vars.Full)
	})

	t.Run("portrait bounded on height", func(t *testing.T) {
		src := encodeTestJPEG(t, 900, 1800)

		vars, err := gen.Generate(src)
		require.NoError(t, err)

		w, h := decodeDims(t, vars.Medium)
		assert.Equal(t, 1200, h)
		assert.Equal(t, 600, w)
	})

	t.Run("small image is never enlarged", func(t *testing.T) {
		src := encodeTestJPEG(t, 640, 480)

		vars, err := gen.Generate(src)
		require.NoError(t, err)

		w, h := decodeDims(t, vars.Medium)
		assert.Equal(t, 640, w)
		assert.Equal(t, 480, h)

		// The thumbnail is always a fixed square, even when that upscales.
		w, h = decodeDims(t, vars.Small)
		assert.Equal(t, 300, w)
		assert.Equal(t, 300, h)
	})

	t.Run("png input is accepted", func(t *testing.T) {
		img := image.NewRGBA(image.Rect(0, 0, 400, 400))
		var buf bytes.Buffer
		require.NoError(t, png.Encode(&buf, img))

		vars, err := gen.Generate(buf.Bytes())
		require.NoError(t, err)
		assert.Equal(t, buf.Bytes(), vars.Full)
	})

	t.Run("undecodable input fails", func(t *testing.T) {
		_, err := gen.Generate([]byte("not an image"))
		require.Error(t, err)
	})
}
