package common

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"
)

// AssetConfig describes the payment asset: how it is shown to users, which
// network it settles on and how the price oracle identifies it.
type AssetConfig struct {
	Symbol        string `yaml:"symbol"`
	Network       string `yaml:"network"`
	OracleId      string `yaml:"oracle_id"`
	QuoteCurrency string `yaml:"quote_currency"`
}

type assetsFile struct {
	Asset AssetConfig `yaml:"asset"`
}

func LoadAssetConfig(assetsPath string) (*AssetConfig, error) {
	if !filepath.IsAbs(assetsPath) {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		assetsPath = filepath.Join(wd, assetsPath)
	}

	data, err := os.ReadFile(assetsPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", assetsPath, err)
	}

	var file assetsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("unable to parse %s: %w", assetsPath, err)
	}

	asset := file.Asset
	if asset.Symbol == "" {
		return nil, fmt.Errorf("asset missing symbol")
	}
	if asset.Network == "" {
		return nil, fmt.Errorf("asset missing network")
	}
	if asset.OracleId == "" {
		return nil, fmt.Errorf("asset missing oracle_id")
	}
	if asset.QuoteCurrency == "" {
		return nil, fmt.Errorf("asset missing quote_currency")
	}

	return &asset, nil
}
