package main

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/cartsync/pkg/cart"
)

//go:embed catalog.yaml
var defaultCatalog []byte

var errEmptyCatalog = errors.New("catalog has no products")

type catalogFile struct {
	Currency string        `yaml:"currency"`
	Products []catalogItem `yaml:"products"`
}

type catalogItem struct {
	ID     string   `yaml:"id"`
	Title  string   `yaml:"title"`
	Price  string   `yaml:"price"`
	Images []string `yaml:"images"`
}

type catalog struct {
	currency currency.Unit
	products []cart.Product
}

// loadCatalog reads path, or the embedded demo catalog when path is empty.
func loadCatalog(path string) (catalog, error) {
	raw := defaultCatalog
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return catalog{}, fmt.Errorf("read catalog: %w", err)
		}
		raw = b
	}

	var f catalogFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return catalog{}, fmt.Errorf("parse catalog: %w", err)
	}
	if len(f.Products) == 0 {
		return catalog{}, errEmptyCatalog
	}

	unit, err := currency.ParseISO(f.Currency)
	if err != nil {
		return catalog{}, fmt.Errorf("catalog currency %q: %w", f.Currency, err)
	}

	c := catalog{currency: unit}
	for _, item := range f.Products {
		price, err := decimal.NewFromString(item.Price)
		if err != nil {
			return catalog{}, fmt.Errorf("product %s price: %w", item.ID, err)
		}
		p := cart.Product{ID: item.ID, Title: item.Title, Price: price, Images: item.Images}
		if err := p.Validate(); err != nil {
			return catalog{}, fmt.Errorf("product %q: %w", item.ID, err)
		}
		c.products = append(c.products, p)
	}
	return c, nil
}
