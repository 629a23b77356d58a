package render

import (
	"bytes"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"confreg/internal/platform/config"
	"confreg/internal/registration/models"
)

func TestCard(t *testing.T) {
	rec := models.Registration{
		RegistrationID: "D1700000000123",
		Category:       "Delegate",
		Title:          "Dr",
		Name:           "Asha Rao Venkata Lakshmi Narasimhan",
		PaymentStatus:  models.PaymentPaid,
	}
	data, err := Card(rec)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, cardWidth, cardHeight), img.Bounds())

	r, g, b, _ := img.At(5, 5).RGBA()
	assert.Equal(t, [3]uint32{0xf0, 0xf0, 0xf0}, [3]uint32{r >> 8, g >> 8, b >> 8}, "background colour")
}

func TestQRPayload(t *testing.T) {
	rec := models.Registration{RegistrationID: "RC1", Category: "RC Member", Title: "Dr.", Name: "Asha", PaymentStatus: models.PaymentPaid}
	assert.Equal(t, "Name: Dr. Asha\nReg Type: RC Member\nReg ID: RC1\nStatus: Paid", QRPayload(rec))
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Dr. Asha", DisplayName("Dr", "Asha"))
	assert.Equal(t, "Dr. Asha", DisplayName("Dr.", "Asha"))
	assert.Equal(t, "Asha", DisplayName(" ", "Asha"))
}

func TestWrap(t *testing.T) {
	lines := wrap("aaaa bbbb cccc", textWidth("aaaa bbbb", 1), 1)
	assert.Equal(t, []string{"aaaa bbbb", "cccc"}, lines)
	assert.Nil(t, wrap("   ", 100, 1))
	assert.Equal(t, []string{"longword"}, wrap("longword", 7, 1))
}

func TestCertificates(t *testing.T) {
	t.Run("blank page", func(t *testing.T) {
		c, err := NewCertificates("")
		require.NoError(t, err)
		data, err := c.Render("Dr", "Asha")
		require.NoError(t, err)
		img, err := png.Decode(bytes.NewReader(data))
		require.NoError(t, err)
		assert.Equal(t, blankCertificateWidth, img.Bounds().Dx())
	})

	t.Run("template size is kept", func(t *testing.T) {
		tpl := image.NewRGBA(image.Rect(0, 0, 640, 480))
		path := filepath.Join(t.TempDir(), "template.png")
		f, err := os.Create(path)
		require.NoError(t, err)
		require.NoError(t, png.Encode(f, tpl))
		require.NoError(t, f.Close())

		c, err := NewCertificates(path)
		require.NoError(t, err)
		data, err := c.Render("", "Asha")
		require.NoError(t, err)
		img, err := png.Decode(bytes.NewReader(data))
		require.NoError(t, err)
		assert.Equal(t, image.Rect(0, 0, 640, 480), img.Bounds())
	})

	t.Run("missing template", func(t *testing.T) {
		_, err := NewCertificates(filepath.Join(t.TempDir(), "nope.jpg"))
		assert.Error(t, err)
	})
}

func TestArtifacts_Save(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "qrcodes")
	a, err := NewArtifacts(config.ArtifactConfig{Dir: dir, BaseURL: "https://tgsdc.example/", URLPath: "/qrcodes"})
	require.NoError(t, err)

	path, url, err := a.Save(CardFileName("D1"), []byte("one"))
	require.NoError(t, err)
	assert.Equal(t, "https://tgsdc.example/qrcodes/TGSDC_D1.png", url)

	_, _, err = a.Save(CardFileName("D1"), []byte("two"))
	require.NoError(t, err)
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "two", string(got))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files are cleaned up")

	_, _, err = a.Save("../escape.png", nil)
	assert.Error(t, err)
}
