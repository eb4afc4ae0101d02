package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/ramonehamilton/MTG-Buylist/internal/lists"
)

func entry(name string, qty int, price string) lists.CardEntry {
	e := lists.NewCardEntry(name, qty)
	if price != "" {
		p := decimal.RequireFromString(price)
		e.UnitPrice = &p
	}
	return *e
}

func bought(e lists.CardEntry, order int) lists.CardEntry {
	e.Bought = true
	e.PurchaseOrder = &order
	return e
}

func fiveEntriesTwoBought() []lists.CardEntry {
	return []lists.CardEntry{
		entry("A", 1, "1.00"),
		bought(entry("B", 2, "2.00"), 7),
		entry("C", 3, ""),
		bought(entry("D", 4, "0.5"), 3),
		entry("E", 5, "0.10"),
	}
}

func readCSV(t *testing.T, data string) [][]string {
	t.Helper()
	records, err := csv.NewReader(strings.NewReader(data)).ReadAll()
	if err != nil {
		t.Fatalf("invalid CSV: %v\n%s", err, data)
	}
	return records
}

func TestWrite_CSVExcludesBought(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, FormatCSV, BuildRows(fiveEntriesTwoBought(), false), false); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	records := readCSV(t, buf.String())
	if len(records) != 4 {
		t.Fatalf("records = %d, want header + 3 rows", len(records))
	}

	wantHeader := []string{"Name", "Mana Cost", "Qty", "Per Card Price", "Total Price", "Purchase Order", "Order Details"}
	for i, h := range wantHeader {
		if records[0][i] != h {
			t.Errorf("header[%d] = %q, want %q", i, records[0][i], h)
		}
	}

	for i, name := range []string{"A", "C", "E"} {
		if records[i+1][0] != name {
			t.Errorf("row %d name = %q, want %q", i+1, records[i+1][0], name)
		}
	}
	if records[2][3] != "" || records[2][4] != "" {
		t.Errorf("unpriced row = %v, want empty price cells", records[2])
	}
	if records[3][3] != "0.10" || records[3][4] != "0.50" {
		t.Errorf("E prices = %q %q", records[3][3], records[3][4])
	}
}

func TestWrite_CSVIncludesBoughtByPurchaseOrder(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, FormatCSV, BuildRows(fiveEntriesTwoBought(), true), false); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	records := readCSV(t, buf.String())
	var got []string
	for _, r := range records[1:] {
		got = append(got, r[0])
	}
	want := "A,C,E,D,B"
	if strings.Join(got, ",") != want {
		t.Errorf("order = %v, want %s", got, want)
	}
	if records[4][5] != "3" || records[4][3] != "0.50" || records[4][4] != "2.00" {
		t.Errorf("D row = %v", records[4])
	}
}

func TestWrite_CSVQuoting(t *testing.T) {
	e := entry("Fire // Ice, Split", 1, "0.30")
	cost := "{1}{R} // {1}{U}"
	e.ManaCost = &cost
	e.OrderDetails = "said \"hi\"\nsecond line"

	var buf bytes.Buffer
	if err := Write(&buf, FormatCSV, BuildRows([]lists.CardEntry{e}, false), false); err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(buf.String(), `"Fire // Ice, Split"`) {
		t.Errorf("comma field not quoted:\n%s", buf.String())
	}
	records := readCSV(t, buf.String())
	if records[1][6] != "said \"hi\"\nsecond line" {
		t.Errorf("order details = %q", records[1][6])
	}
}

func TestWrite_EmptyListHasHeader(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, FormatCSV, nil, false); err != nil {
		t.Fatal(err)
	}
	if records := readCSV(t, buf.String()); len(records) != 1 {
		t.Errorf("records = %d, want header only", len(records))
	}
}

func TestWrite_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, FormatJSON, BuildRows(fiveEntriesTwoBought(), true), true); err != nil {
		t.Fatal(err)
	}

	var rows []Row
	if err := json.Unmarshal(buf.Bytes(), &rows); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(rows) != 5 || rows[4].Name != "B" || *rows[4].PurchaseOrder != 7 {
		t.Errorf("rows = %+v", rows)
	}
}

func TestWriteFile_Overwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.csv")
	rows := BuildRows(fiveEntriesTwoBought(), false)

	if err := WriteFile(Options{Format: FormatCSV, FilePath: path}, rows); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if err := WriteFile(Options{Format: FormatCSV, FilePath: path}, rows); err == nil {
		t.Error("second WriteFile() without Overwrite should fail")
	}
	if err := WriteFile(Options{Format: FormatCSV, FilePath: path, Overwrite: true}, rows[:1]); err != nil {
		t.Fatalf("WriteFile() with Overwrite error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if records := readCSV(t, string(data)); len(records) != 2 {
		t.Errorf("records = %d, want 2", len(records))
	}
}

func TestFilename(t *testing.T) {
	tests := []struct {
		list          string
		includeBought bool
		format        Format
		want          string
	}{
		{"Modern", true, FormatCSV, "Modern_all.csv"},
		{"Modern", false, FormatCSV, "Modern_unbought.csv"},
		{"Modern", false, "", "Modern_unbought.csv"},
		{"a/b", true, FormatJSON, "a_b_all.json"},
		{"..", false, FormatCSV, "list_unbought.csv"},
	}

	for _, tt := range tests {
		if got := Filename(tt.list, tt.includeBought, tt.format); got != tt.want {
			t.Errorf("Filename(%q, %v, %q) = %q, want %q", tt.list, tt.includeBought, tt.format, got, tt.want)
		}
	}
}

func TestParseFormat(t *testing.T) {
	if f, err := ParseFormat("CSV"); err != nil || f != FormatCSV {
		t.Errorf("ParseFormat(CSV) = %v, %v", f, err)
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("ParseFormat(xml) should fail")
	}
}
