package config

import (
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/gebv/invoicer"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, ioutil.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestStore_LoadCredentials(t *testing.T) {
	dir := t.TempDir()
	s := &Store{CredentialsPath: writeFile(t, dir, "paypal-info.json", `{
    "client_id": "id-1",
    "client_secret": "secret-1",
    "email": "shop@example.com"
}`)}

	c, err := s.LoadCredentials()
	require.NoError(t, err)
	require.Equal(t, invoicer.ClientCredentials{
		ClientID:     "id-1",
		ClientSecret: "secret-1",
		SenderEmail:  "shop@example.com",
	}, c)
}

func TestStore_LoadCredentials_Errors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		path string
	}{
		{"missing file", filepath.Join(dir, "nope.json")},
		{"malformed", writeFile(t, dir, "bad.json", `{"client_id": `)},
		{"missing secret", writeFile(t, dir, "partial.json", `{"client_id": "a", "email": "b@example.com"}`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := (&Store{CredentialsPath: tt.path}).LoadCredentials()
			require.Error(t, err)
			require.True(t, errors.Is(err, invoicer.ErrConfig), err.Error())
		})
	}
}

func TestStore_LoadProductCatalog(t *testing.T) {
	dir := t.TempDir()
	s := &Store{ProductsPath: writeFile(t, dir, "products.json", `{
    "widget": {"name": "Widget", "description": "A widget", "cost": "10.00"},
    "gadget": {"name": "Gadget", "description": "", "cost": 2.50}
}`)}

	c, err := s.LoadProductCatalog()
	require.NoError(t, err)
	require.Len(t, c, 2)

	p, ok := c.Lookup("widget")
	require.True(t, ok)
	require.Equal(t, invoicer.Product{Name: "Widget", Description: "A widget", Cost: "10.00"}, p)

	p, ok = c.Lookup("gadget")
	require.True(t, ok)
	require.Equal(t, "2.50", p.Cost)

	_, ok = c.Lookup("missing")
	require.False(t, ok)
}

func TestStore_LoadProductCatalog_JSONEscapes(t *testing.T) {
	dir := t.TempDir()
	s := &Store{ProductsPath: writeFile(t, dir, "products.json", "{\n\t\"widget\": {\n\t\t\"name\": \"Widget \\/ X\",\n\t\t\"description\": \"caf\\u00e9\",\n\t\t\"cost\": 10.00\n\t}\n}")}

	c, err := s.LoadProductCatalog()
	require.NoError(t, err)
	require.Equal(t, invoicer.Product{Name: "Widget / X", Description: "café", Cost: "10.00"}, c["widget"])
}

func TestStore_LoadProductCatalog_YAML(t *testing.T) {
	dir := t.TempDir()
	s := &Store{ProductsPath: writeFile(t, dir, "products.yaml", `
widget:
  name: Widget
  description: A widget
  cost: "10.00"
gadget:
  name: Gadget
  cost: 2.50
`)}
	c, err := s.LoadProductCatalog()
	require.NoError(t, err)
	require.Equal(t, "Widget", c["widget"].Name)
	require.Equal(t, "2.50", c["gadget"].Cost)
}

func TestStore_LoadProductCatalog_Reloads(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "products.json", `{"a": {"name": "A", "cost": "1.00"}}`)
	s := &Store{ProductsPath: path}

	c, err := s.LoadProductCatalog()
	require.NoError(t, err)
	require.Equal(t, "1.00", c["a"].Cost)

	writeFile(t, dir, "products.json", `{"a": {"name": "A", "cost": "2.00"}}`)
	c, err = s.LoadProductCatalog()
	require.NoError(t, err)
	require.Equal(t, "2.00", c["a"].Cost)
}

func TestStore_LoadProductCatalog_Errors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		body string
	}{
		{"empty", `{}`},
		{"no name", `{"a": {"cost": "1.00"}}`},
		{"no cost", `{"a": {"name": "A"}}`},
		{"bad cost", `{"a": {"name": "A", "cost": "ten"}}`},
		{"negative cost", `{"a": {"name": "A", "cost": "-1.00"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Store{ProductsPath: writeFile(t, dir, "products.json", tt.body)}
			_, err := s.LoadProductCatalog()
			require.Error(t, err)
			require.True(t, errors.Is(err, invoicer.ErrConfig), err.Error())
		})
	}
}

func TestStore_LoadBotConfig(t *testing.T) {
	dir := t.TempDir()
	s := &Store{BotConfigPath: writeFile(t, dir, "botconfig.json", `{"token": "bot-token", "guild_id": "123456"}`)}

	c, err := s.LoadBotConfig()
	require.NoError(t, err)
	require.Equal(t, invoicer.BotConfig{Token: "bot-token", GuildID: "123456"}, c)

	s = &Store{BotConfigPath: writeFile(t, dir, "botconfig.json", `{"token": "bot-token"}`)}
	_, err = s.LoadBotConfig()
	require.True(t, errors.Is(err, invoicer.ErrConfig))
}
