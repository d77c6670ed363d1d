package biz

import (
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const totpStep = 30 * time.Second

// totpOpts accepts the code for now and one step either side.
var totpOpts = totp.ValidateOpts{
	Period:    uint(totpStep / time.Second),
	Skew:      1,
	Digits:    otp.DigitsSix,
	Algorithm: otp.AlgorithmSHA1,
}

func newTOTPKey(account string) (*otp.Key, error) {
	return totp.Generate(totp.GenerateOpts{
		Issuer:      issuer,
		AccountName: account,
		Period:      totpOpts.Period,
		SecretSize:  20,
		Digits:      totpOpts.Digits,
		Algorithm:   totpOpts.Algorithm,
	})
}

// TOTP returns the six-digit RFC 6238 code for secret at t.
func TOTP(secret string, t time.Time) (string, error) {
	return totp.GenerateCodeCustom(secret, t, totpOpts)
}

func checkTOTP(secret, code string, now time.Time) bool {
	ok, err := totp.ValidateCustom(code, secret, now, totpOpts)
	return err == nil && ok
}
