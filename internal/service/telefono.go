package service

import (
	"strings"

	"github.com/ttacon/libphonenumber"
)

// regionTelefonos is the default region for numbers written without a
// country prefix.
const regionTelefonos = "PE"

// normalizarTelefono returns the number in E.164 and true when it parses as
// a valid number. Otherwise the trimmed input is returned unchanged.
func normalizarTelefono(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	p, err := libphonenumber.Parse(raw, regionTelefonos)
	if err != nil || !libphonenumber.IsValidNumber(p) {
		return raw, false
	}
	return libphonenumber.Format(p, libphonenumber.E164), true
}
