// Package keygen implements the access key grammar:
//
//	ASH-P-AAAA-NNNN-NNNN  (personas)
//	ASH-E-AAAA-NNNN-NNNN  (empresas)
//
// where AAAA is uppercase alphanumeric and each NNNN is four digits.
package keygen

import (
	"regexp"
	"strings"

	"github.com/dmitrijs2005/ashdiag/internal/common"
	"github.com/dmitrijs2005/ashdiag/internal/server/models"
)

const (
	alnum  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	digits = "0123456789"
)

var keyPattern = regexp.MustCompile(`^ASH-[PE]-[A-Z0-9]{4}-[0-9]{4}-[0-9]{4}$`)

// randString is swapped in tests to force collisions.
var randString = common.RandString

// Generate returns a fresh random key for product.
func Generate(p models.Product) (string, error) {
	a, err := randString(alnum, 4)
	if err != nil {
		return "", err
	}
	n1, err := randString(digits, 4)
	if err != nil {
		return "", err
	}
	n2, err := randString(digits, 4)
	if err != nil {
		return "", err
	}
	return p.KeyPrefix() + a + "-" + n1 + "-" + n2, nil
}

// Normalize trims surrounding space and upper-cases the value.
func Normalize(value string) string {
	return strings.ToUpper(strings.TrimSpace(value))
}

// Valid reports whether value is a well-formed key for product. The value is
// expected to be normalized already.
func Valid(value string, p models.Product) bool {
	return keyPattern.MatchString(value) && strings.HasPrefix(value, p.KeyPrefix())
}
