package render

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/skip2/go-qrcode"
	"golang.org/x/image/draw"

	"confreg/internal/registration/models"
)

const (
	cardWidth     = 800
	cardHeight    = 450
	cardInset     = 20
	cardTextX     = 60
	cardNameY     = 100
	cardNameWidth = 420
	cardQRX       = 500
	cardQRY       = 80
	cardQRSize    = 250
	cardLabel     = "10th - TGSDC"
)

var (
	cardBackground = hex(0xf0f0f0)
	cardBorder     = hex(0x333333)
	cardInk        = hex(0x000000)
	cardAccent     = hex(0xf9af47)
	cardMuted      = hex(0x555555)
	cardHighlight  = hex(0xc41e3a)
)

// QRPayload is the text encoded in the card's QR code.
func QRPayload(rec models.Registration) string {
	status := "Paid"
	if rec.PaymentStatus == models.PaymentCompleted {
		status = string(models.PaymentCompleted)
	}
	return fmt.Sprintf("Name: %s\nReg Type: %s\nReg ID: %s\nStatus: %s",
		DisplayName(rec.Title, rec.Name), rec.Category, rec.RegistrationID, status)
}

// Card renders the 800x450 entry card as PNG.
func Card(rec models.Registration) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, cardWidth, cardHeight))
	fillRect(img, img.Bounds(), cardBackground)
	strokeRect(img, image.Rect(cardInset, cardInset, cardWidth-cardInset, cardHeight-cardInset), 3, cardBorder)

	y := cardNameY
	for _, line := range wrap(DisplayName(rec.Title, rec.Name), cardNameWidth, 2) {
		drawText(img, line, cardTextX, y, 2, cardInk)
		y += 40
	}
	drawText(img, cardLabel, cardTextX, y+10, 2, cardAccent)

	drawText(img, "REGISTRATION ID", cardTextX, 250, 1, cardMuted)
	drawText(img, rec.RegistrationID, cardTextX, 280, 2, cardHighlight)

	qr, err := qrcode.New(QRPayload(rec), qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	qrImg := qr.Image(cardQRSize)
	draw.Draw(img, image.Rect(cardQRX, cardQRY, cardQRX+cardQRSize, cardQRY+cardQRSize), qrImg, qrImg.Bounds().Min, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode card: %w", err)
	}
	return buf.Bytes(), nil
}
