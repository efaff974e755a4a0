package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"finanzas/internal/core"
)

// Seed lists the categories and accounts created on an empty database.
type Seed struct {
	Categories []SeedCategory `yaml:"categorias"`
	Accounts   []SeedAccount  `yaml:"cuentas"`
}

type SeedCategory struct {
	Name  string `yaml:"nombre"`
	Type  string `yaml:"tipo"`
	Color string `yaml:"color"`
}

type SeedAccount struct {
	Name           string `yaml:"nombre"`
	OpeningBalance string `yaml:"saldoInicial"`
	Description    string `yaml:"descripcion"`
}

// LoadSeed reads and validates a YAML seed file.
func LoadSeed(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return ParseSeed(data)
}

func ParseSeed(data []byte) (*Seed, error) {
	var s Seed
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	for i, c := range s.Categories {
		if _, err := c.Form().Category(); err != nil {
			return nil, fmt.Errorf("seed category %d (%s): %w", i, c.Name, err)
		}
	}
	for i, a := range s.Accounts {
		if _, err := a.Form().Account(); err != nil {
			return nil, fmt.Errorf("seed account %d (%s): %w", i, a.Name, err)
		}
	}
	return &s, nil
}

func (c SeedCategory) Form() core.CategoryForm {
	return core.CategoryForm{Name: c.Name, Type: c.Type, Color: c.Color}
}

func (a SeedAccount) Form() core.AccountForm {
	return core.AccountForm{Name: a.Name, OpeningBalance: core.AmountText(a.OpeningBalance), Description: a.Description}
}
