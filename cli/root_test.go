package cli

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"stamps-catalog/models"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	return buf.String(), err
}

func TestRootCmdHelpListsCommands(t *testing.T) {
	out, err := execute(t, "--help")
	if err != nil {
		t.Fatalf("stamps --help failed: %v", err)
	}

	for _, cmd := range []string{"extract", "import", "stats"} {
		if !strings.Contains(out, cmd) {
			t.Errorf("expected help output to list %q command, got:\n%s", cmd, out)
		}
	}
}

func TestRootCmdUnknownCommand(t *testing.T) {
	if _, err := execute(t, "nonexistent-command"); err == nil {
		t.Fatal("expected error for unknown command, got nil")
	}
}

func TestImportRequiresURLs(t *testing.T) {
	if _, err := execute(t, "import"); err == nil {
		t.Fatal("expected error for import without URLs, got nil")
	}
}

func TestImportRejectsBlankURLs(t *testing.T) {
	_, err := execute(t, "import", " ", "")
	if !errors.Is(err, errNoURLs) {
		t.Fatalf("import with blank URLs: got %v; want %v", err, errNoURLs)
	}
}

func TestImportOutcome(t *testing.T) {
	ok := &models.ImportResult{URL: "https://meshok.net/item/1"}
	bad := &models.ImportResult{URL: "https://unknown.example/", Err: "no parser matches url"}

	tests := []struct {
		name    string
		results []*models.ImportResult
		failed  int
		want    string
	}{
		{"nothing imported", nil, 0, "no URLs given"},
		{"all failed", []*models.ImportResult{bad}, 1, "all 1 imports failed"},
		{"some succeeded", []*models.ImportResult{ok, bad}, 1, ""},
	}

	for _, tt := range tests {
		err := importOutcome(tt.results, tt.failed)
		got := ""
		if err != nil {
			got = err.Error()
		}
		if got != tt.want {
			t.Errorf("%s: importOutcome() = %q; want %q", tt.name, got, tt.want)
		}
	}
}

func TestFormatPrice(t *testing.T) {
	tests := []struct {
		price models.Optional[decimal.Decimal]
		want  string
	}{
		{models.Some(decimal.RequireFromString("12.50")), "12.50"},
		{models.Some(decimal.RequireFromString("0.05")), "0.05"},
		{models.Some(decimal.RequireFromString("350")), "350"},
		{models.None[decimal.Decimal](), "<none>"},
	}

	for _, tt := range tests {
		if got := formatPrice(tt.price); got != tt.want {
			t.Errorf("formatPrice(%s) = %q; want %q", tt.price, got, tt.want)
		}
	}
}

func TestStatsRejectsBadFlags(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"stats", "--days", "0"}, "--days must be positive"},
		{[]string{"stats", "--days", "7", "--lang", "de"}, "--lang must be en or ru"},
	}

	for _, tt := range tests {
		_, err := execute(t, tt.args...)
		if err == nil || !strings.Contains(err.Error(), tt.want) {
			t.Errorf("%v: got error %v; want it to contain %q", tt.args, err, tt.want)
		}
	}
}

func TestPrintExtracted(t *testing.T) {
	buf := new(bytes.Buffer)

	printExtracted(buf, models.ExtractedInfo{
		CategoryIDs: []int{3, 8},
		ReleaseYear: models.Some(1977),
		Price:       models.Some(decimal.RequireFromString("10.50")),
	})

	out := buf.String()
	for _, want := range []string{
		"Categories     : 3, 8",
		"Countries      : <none>",
		"Release year   : 1977",
		"Quantity       : <none>",
		"Price          : 10.50",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("printExtracted output is missing %q, got:\n%s", want, out)
		}
	}
}

func TestPrintImportResults(t *testing.T) {
	buf := new(bytes.Buffer)

	failed := printImportResults(buf, []*models.ImportResult{
		{URL: "https://meshok.net/item/1", ParserName: "meshok", Info: models.ExtractedInfo{CountryIDs: []int{21}}},
		{URL: "https://example.com/", Err: "no parser matches url"},
	})

	if failed != 1 {
		t.Errorf("failed = %d; want 1", failed)
	}
	out := buf.String()
	if !strings.Contains(out, "countries: 21") || !strings.Contains(out, "no parser matches url") {
		t.Errorf("unexpected output:\n%s", out)
	}
	if !strings.Contains(out, "1 imported, 1 failed") {
		t.Errorf("missing summary line:\n%s", out)
	}
}
