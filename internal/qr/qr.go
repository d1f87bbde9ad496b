package qr

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"
)

// NewCode generates a human-presentable admission code: "QR_" plus 10
// uppercase characters drawn from a fresh UUID. Uniqueness is ultimately
// enforced by the sales table constraint; the 40 bits here keep collisions
// out of normal operation.
func NewCode() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("QR_%s", strings.ToUpper(raw[:10]))
}

// ImagePNG renders the code as a 256x256 PNG for display or printing.
func ImagePNG(code string) ([]byte, error) {
	return qrcode.Encode(code, qrcode.Medium, 256)
}
