package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramonehamilton/MTG-Buylist/internal/buylist"
	"github.com/ramonehamilton/MTG-Buylist/internal/config"
	"github.com/ramonehamilton/MTG-Buylist/internal/lists"
	"github.com/ramonehamilton/MTG-Buylist/internal/logger"
	"github.com/ramonehamilton/MTG-Buylist/internal/storage"
	"github.com/ramonehamilton/MTG-Buylist/internal/view"
)

// writeConfig points storage at a temporary SQLite file.
func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Storage.Path = filepath.Join(dir, "buylist.db")
	cfg.App.LogLevel = "error"
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, cfg.SaveTo(path))
	return path
}

func run(t *testing.T, configPath string, stdin string, args ...string) string {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--config", configPath}, args...))
	require.NoError(t, cmd.ExecuteContext(context.Background()), out.String())
	return out.String()
}

func TestCLI_ImportShowExport(t *testing.T) {
	cfgPath := writeConfig(t)

	out := run(t, cfgPath, "4 Lightning Bolt\n2x Counterspell (MH2) 267\n", "import", "--no-lookup")
	assert.Contains(t, out, `Imported 2 cards into "Default"`)

	out = run(t, cfgPath, "", "show", "--all", "--sort", "quantity", "--desc")
	assert.Contains(t, out, "NAME")
	assert.Less(t, strings.Index(out, "Lightning Bolt"), strings.Index(out, "Counterspell"))
	assert.Contains(t, out, "To buy: 6 cards, $0.00")

	out = run(t, cfgPath, "", "export", "--output", "-")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Name,Mana Cost,Qty,Per Card Price,Total Price,Purchase Order,Order Details", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "Lightning Bolt,,4"))

	dir := t.TempDir()
	out = run(t, cfgPath, "", "export", "--dir", dir, "--format", "json")
	assert.Contains(t, out, "Exported 2 cards")
	_, err := os.Stat(filepath.Join(dir, "Default_unbought.json"))
	assert.NoError(t, err)
}

func TestCLI_ListCommands(t *testing.T) {
	cfgPath := writeConfig(t)

	run(t, cfgPath, "", "create", "Modern")
	run(t, cfgPath, "1 Ragavan\n", "import", "--no-lookup")

	cfg, err := config.LoadFrom(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, "Modern", cfg.View.List, "create pins the new list")

	out := run(t, cfgPath, "", "lists")
	assert.Contains(t, out, "Default")
	assert.Contains(t, out, "*  Modern")

	out = run(t, cfgPath, "", "--list", "Default", "show")
	assert.Contains(t, out, "No cards.")

	run(t, cfgPath, "", "select", "Default")
	out = run(t, cfgPath, "", "delete", "--yes", "Modern")
	assert.Contains(t, out, `Deleted list "Modern"`)

	out = run(t, cfgPath, "", "lists")
	assert.NotContains(t, out, "Modern")
}

func TestCLI_BackupRestore(t *testing.T) {
	cfgPath := writeConfig(t)
	run(t, cfgPath, "3 Opt\n", "import", "--no-lookup")

	backup := filepath.Join(t.TempDir(), "buylist.yaml")
	run(t, cfgPath, "", "backup", backup)

	run(t, cfgPath, "", "delete", "--yes", "Default")
	out := run(t, cfgPath, "", "show")
	assert.Contains(t, out, "No cards.")

	out = run(t, cfgPath, "", "restore", "--yes", backup)
	assert.Contains(t, out, "Restored")

	out = run(t, cfgPath, "", "show")
	assert.Contains(t, out, "Opt")
}

func TestCLI_Chart(t *testing.T) {
	cfgPath := writeConfig(t)
	run(t, cfgPath, "2 Opt\n", "import", "--no-lookup")

	path := filepath.Join(t.TempDir(), "chart.html")
	out := run(t, cfgPath, "", "chart", "--output", path)
	assert.Contains(t, out, "Chart written")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Remaining")
}

func TestRenderTable(t *testing.T) {
	price := decimal.RequireFromString("1.5")
	cost := "{R}"
	order := 2
	cards := []lists.CardEntry{
		{Name: "Lightning Bolt", Quantity: 4, UnitPrice: &price, ManaCost: &cost, Selected: true},
		{Name: "Counterspell", Quantity: 1, Bought: true, PurchaseOrder: &order},
	}

	cols := buylist.DefaultColumns()
	cols[buylist.ColumnOrderDetails] = false

	var buf bytes.Buffer
	require.NoError(t, renderTable(&buf, cards, cols, 0))
	out := buf.String()

	assert.Contains(t, out, "PRICE")
	assert.NotContains(t, out, "ORDER")
	assert.Contains(t, out, "$1.50")
	assert.Contains(t, out, "$6.00")
	assert.Contains(t, out, "#2")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "Lightning Bolt", truncate("Lightning Bolt", 0))
	assert.Equal(t, "Lightning Bolt", truncate("Lightning Bolt", 20))
	assert.Equal(t, "Light...", truncate("Lightning Bolt", 8))
	assert.Equal(t, "Li", truncate("Lightning Bolt", 2))
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
	}
	for _, tt := range tests {
		var out bytes.Buffer
		got, err := confirm(strings.NewReader(tt.input), &out, "Delete?")
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "input %q", tt.input)
		assert.Equal(t, "Delete? [y/N]: ", out.String())
	}
}

func TestApplySort(t *testing.T) {
	svc, err := buylist.New(context.Background(), buylist.Options{
		Store:  storage.NewMemoryStore(),
		Logger: logger.NewNop(),
	})
	require.NoError(t, err)

	applySort(svc, view.SortName, false)
	assert.Equal(t, view.Sort{Key: view.SortName, Direction: view.Ascending}, svc.ViewState().Sort)

	applySort(svc, view.SortUnitPrice, true)
	assert.Equal(t, view.Sort{Key: view.SortUnitPrice, Direction: view.Descending}, svc.ViewState().Sort)

	applySort(svc, view.SortName, true)
	assert.Equal(t, view.Sort{Key: view.SortName, Direction: view.Descending}, svc.ViewState().Sort)
}
