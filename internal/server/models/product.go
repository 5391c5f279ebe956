package models

import (
	"fmt"
	"strings"
)

// Product selects the question bank and the key prefix.
type Product string

const (
	ProductPersonas Product = "personas"
	ProductEmpresas Product = "empresas"
)

// Products lists every supported product in display order.
var Products = []Product{ProductPersonas, ProductEmpresas}

// ParseProduct normalizes s and rejects unknown products.
func ParseProduct(s string) (Product, error) {
	p := Product(strings.ToLower(strings.TrimSpace(s)))
	switch p {
	case ProductPersonas, ProductEmpresas:
		return p, nil
	default:
		return "", fmt.Errorf("unknown product %q", s)
	}
}

// KeyPrefix returns the literal prefix every key of the product carries.
func (p Product) KeyPrefix() string {
	if p == ProductEmpresas {
		return "ASH-E-"
	}
	return "ASH-P-"
}
