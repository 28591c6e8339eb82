package names

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

const itemsJSON = `[
  {"UniqueName": "T4_BAG", "LocalizedNames": {"EN-US": "Adept's Bag", "DE-DE": "Tasche des Adepten"}},
  {"UniqueName": "T5_BAG", "LocalizedNames": {"DE-DE": "Tasche des Experten"}},
  {"UniqueName": "", "LocalizedNames": {"EN-US": "nameless"}}
]`

const worldJSON = `[
  {"Index": "3005", "UniqueName": "Caerleon"},
  {"Index": "1002", "UniqueName": "Bridgewatch"},
  {"Index": "", "UniqueName": "orphan"}
]`

func TestLoad_ResolvesLocalizedNames(t *testing.T) {
	c, err := Load(writeFile(t, "items.json", itemsJSON), writeFile(t, "world.json", worldJSON), "EN-US")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if got := c.ItemName("T4_BAG"); got != "Adept's Bag" {
		t.Errorf("ItemName(T4_BAG) = %q, want Adept's Bag", got)
	}
	// No EN-US entry: unmapped, echoes the identifier.
	if got := c.ItemName("T5_BAG"); got != "T5_BAG" {
		t.Errorf("ItemName(T5_BAG) = %q, want echo", got)
	}
	if got := c.LocationName("3005"); got != "Caerleon" {
		t.Errorf("LocationName(3005) = %q, want Caerleon", got)
	}
	if got := c.LocationName("9999"); got != "9999" {
		t.Errorf("LocationName(9999) = %q, want echo", got)
	}
}

func TestLoad_EmptyPathsAreAllowed(t *testing.T) {
	c, err := Load("", "", "EN-US")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := c.ItemName("T4_BAG"); got != "T4_BAG" {
		t.Errorf("ItemName = %q, want echo", got)
	}
}

func TestLoad_MissingFileFails(t *testing.T) {
	if _, err := Load("/does/not/exist.json", "", "EN-US"); err == nil {
		t.Fatal("expected error for missing items file")
	}
}

func TestLoad_MalformedJSONFails(t *testing.T) {
	path := writeFile(t, "items.json", "{not json")
	if _, err := Load(path, "", "EN-US"); err == nil {
		t.Fatal("expected error for malformed items file")
	}
}

func TestCatalog_CopiesAreIndependent(t *testing.T) {
	c, err := Load(writeFile(t, "items.json", itemsJSON), writeFile(t, "world.json", worldJSON), "EN-US")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	items := c.Items()
	items["T4_BAG"] = "mutated"
	if got := c.ItemName("T4_BAG"); got != "Adept's Bag" {
		t.Errorf("catalog mutated through the copy: %q", got)
	}

	locs := c.Locations()
	locs["3005"] = "mutated"
	if got := c.LocationName("3005"); got != "Caerleon" {
		t.Errorf("catalog mutated through the copy: %q", got)
	}
}

func TestEmpty_Echoes(t *testing.T) {
	c := Empty()
	if c.ItemName("x") != "x" || c.LocationName("y") != "y" {
		t.Error("empty catalog must echo identifiers")
	}
}
