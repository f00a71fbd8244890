package mpesa

import (
	"encoding/base64"
	"time"
)

const timestampLayout = "20060102150405"

// Timestamp renders t as the 14 digit YYYYMMDDHHmmss form Daraja expects.
func Timestamp(t time.Time) string {
	return t.Format(timestampLayout)
}

// Password is base64(shortCode + passKey + timestamp). The timestamp must be the one sent in the body.
func Password(shortCode, passKey, timestamp string) string {
	return base64.StdEncoding.EncodeToString([]byte(shortCode + passKey + timestamp))
}
