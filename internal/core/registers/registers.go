package registers

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/berfenger/solarpoll/internal/core/domain"

	"gopkg.in/yaml.v3"
)

//go:embed growatt_spf.yaml
var growattSPF []byte

// Bank is a register table together with the device it describes.
type Bank struct {
	Model        string
	Manufacturer string
	Table        domain.RegisterTable
}

type bankFile struct {
	Model        string         `yaml:"model"`
	Manufacturer string         `yaml:"manufacturer"`
	Registers    []registerFile `yaml:"registers"`
}

type registerFile struct {
	Name       string  `yaml:"name"`
	Address    uint16  `yaml:"address"`
	Encoding   string  `yaml:"encoding"`
	Multiplier float32 `yaml:"multiplier"`
	Unit       string  `yaml:"unit"`
	Samples    uint    `yaml:"samples"`
}

func Default() (*Bank, error) {
	return Parse(growattSPF)
}

func Load(path string) (*Bank, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read register file: %w", err)
	}
	return Parse(data)
}

// LoadOrDefault loads path, or the embedded Growatt SPF bank when path is empty.
func LoadOrDefault(path string) (*Bank, error) {
	if path == "" {
		return Default()
	}
	return Load(path)
}

func Parse(data []byte) (*Bank, error) {
	var file bankFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse register file: %w", err)
	}

	table := make(domain.RegisterTable, 0, len(file.Registers))
	for _, r := range file.Registers {
		enc, err := domain.ParseEncoding(r.Encoding)
		if err != nil {
			return nil, fmt.Errorf("register %s: %w", r.Name, err)
		}
		table = append(table, domain.RegisterDefinition{
			Name:       r.Name,
			Address:    r.Address,
			Encoding:   enc,
			Multiplier: r.Multiplier,
			Unit:       r.Unit,
			Samples:    r.Samples,
		})
	}
	if err := table.Validate(); err != nil {
		return nil, err
	}

	return &Bank{
		Model:        file.Model,
		Manufacturer: file.Manufacturer,
		Table:        table,
	}, nil
}
