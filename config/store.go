// Package config loads client credentials, the product catalog and the bot
// settings from local files.
//
// Files with the .yaml or .yml extension are decoded as YAML, any other file
// as JSON.
package config

import (
	"encoding/json"
	"io/ioutil"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/gebv/invoicer"
)

const (
	DefaultCredentialsPath = "paypal-info.json"
	DefaultProductsPath    = "products.json"
	DefaultBotConfigPath   = "botconfig.json"
)

// Store reads configuration files on every call.
// The catalog is reread per invoice so edits apply without a restart.
type Store struct {
	CredentialsPath string
	ProductsPath    string
	BotConfigPath   string
}

func NewStore(credentialsPath, productsPath, botConfigPath string) *Store {
	return &Store{
		CredentialsPath: credentialsPath,
		ProductsPath:    productsPath,
		BotConfigPath:   botConfigPath,
	}
}

func (s *Store) LoadCredentials() (invoicer.ClientCredentials, error) {
	var c invoicer.ClientCredentials
	if err := decodeFile(s.CredentialsPath, &c); err != nil {
		return c, err
	}
	if err := requireFields(s.CredentialsPath, map[string]string{
		"client_id":     c.ClientID,
		"client_secret": c.ClientSecret,
		"email":         c.SenderEmail,
	}); err != nil {
		return c, err
	}
	return c, nil
}

func (s *Store) LoadProductCatalog() (invoicer.ProductCatalog, error) {
	var c invoicer.ProductCatalog
	if err := decodeFile(s.ProductsPath, &c); err != nil {
		return nil, err
	}
	if len(c) == 0 {
		return nil, errors.Wrapf(invoicer.ErrConfig, "%s: empty product catalog", s.ProductsPath)
	}
	for id, p := range c {
		if err := requireFields(s.ProductsPath+": product "+id, map[string]string{
			"name": p.Name,
			"cost": p.Cost,
		}); err != nil {
			return nil, err
		}
		cost, err := decimal.NewFromString(p.Cost)
		if err != nil {
			return nil, errors.Wrapf(invoicer.ErrConfig, "%s: product %s: bad cost %q", s.ProductsPath, id, p.Cost)
		}
		if cost.IsNegative() {
			return nil, errors.Wrapf(invoicer.ErrConfig, "%s: product %s: negative cost %q", s.ProductsPath, id, p.Cost)
		}
	}
	return c, nil
}

func (s *Store) LoadBotConfig() (invoicer.BotConfig, error) {
	var c invoicer.BotConfig
	if err := decodeFile(s.BotConfigPath, &c); err != nil {
		return c, err
	}
	if err := requireFields(s.BotConfigPath, map[string]string{
		"token":    c.Token,
		"guild_id": c.GuildID,
	}); err != nil {
		return c, err
	}
	return c, nil
}

func decodeFile(path string, out interface{}) error {
	b, err := ioutil.ReadFile(path)
	if err != nil {
		zap.L().Named("config").Warn("Failed read config file", zap.String("path", path), zap.Error(err))
		return errors.Wrapf(invoicer.ErrConfig, "read %s: %v", path, err)
	}
	if err := unmarshal(path, b, out); err != nil {
		zap.L().Named("config").Warn("Failed decode config file", zap.String("path", path), zap.Error(err))
		return errors.Wrapf(invoicer.ErrConfig, "decode %s: %v", path, err)
	}
	return nil
}

func unmarshal(path string, b []byte, out interface{}) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(b, out)
	}
	return json.Unmarshal(b, out)
}

func requireFields(where string, fields map[string]string) error {
	var missing []string
	for name, v := range fields {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return errors.Wrapf(invoicer.ErrConfig, "%s: missing %s", where, strings.Join(missing, ", "))
}
