package invoicer

import (
	"bytes"
	"encoding/json"
)

// ClientCredentials identity of the application at the payment processor.
type ClientCredentials struct {
	ClientID     string `json:"client_id" yaml:"client_id"`
	ClientSecret string `json:"client_secret" yaml:"client_secret"`
	SenderEmail  string `json:"email" yaml:"email"`
}

// Product catalog entry. Cost is a decimal string in GBP.
type Product struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Cost        string `json:"cost" yaml:"cost"`
}

// UnmarshalJSON accepts cost as a string or a number, a number keeps its
// literal text.
func (p *Product) UnmarshalJSON(b []byte) error {
	var v struct {
		Name        string          `json:"name"`
		Description string          `json:"description"`
		Cost        json.RawMessage `json:"cost"`
	}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	p.Name, p.Description, p.Cost = v.Name, v.Description, ""
	cost := bytes.TrimSpace(v.Cost)
	switch {
	case len(cost) == 0 || string(cost) == "null":
	case cost[0] == '"':
		return json.Unmarshal(cost, &p.Cost)
	default:
		p.Cost = string(cost)
	}
	return nil
}

// ProductCatalog products by id.
type ProductCatalog map[string]Product

// Lookup returns the product by id.
func (c ProductCatalog) Lookup(productID string) (Product, bool) {
	p, ok := c[productID]
	return p, ok
}

// BotConfig settings of the chat bot.
type BotConfig struct {
	Token   string `json:"token" yaml:"token"`
	GuildID string `json:"guild_id" yaml:"guild_id"`
}
