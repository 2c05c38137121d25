package email

import (
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// ConfirmationQR renders the confirmation code as a PNG QR attachment so the
// host stand can scan arriving guests instead of typing codes.
func ConfirmationQR(confirmationCode string) (Attachment, error) {
	png, err := qrcode.Encode(confirmationCode, qrcode.Medium, 256)
	if err != nil {
		return Attachment{}, fmt.Errorf("encode confirmation qr: %w", err)
	}
	return Attachment{
		FileName: "reservation-" + confirmationCode + ".png",
		Content:  png,
	}, nil
}
