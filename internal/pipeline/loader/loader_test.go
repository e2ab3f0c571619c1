package loader

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/avasseur/bdnb-rag/internal/domain/buildingModel"
)

const testHeader = "batiment_groupe_id,code_departement_insee,code_commune_insee,libelle_commune_insee,usage_principal,annee_construction,s_totale_bat,nb_niveau,classe_bilan_dpe"

func buildZip(t *testing.T, csvContent string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	entry, err := zw.Create("bdnb_export.csv")
	if err != nil {
		t.Fatalf("creating zip entry: %v", err)
	}
	if _, err := entry.Write([]byte(csvContent)); err != nil {
		t.Fatalf("writing zip entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("closing zip: %v", err)
	}
	return buf.Bytes()
}

func newArchiveServer(t *testing.T, zipPayload []byte) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><table>
			<tr><td>Département 93</td><td><a href="dept_93.zip">zip</a></td></tr>
			<tr><td>Département 75</td><td><a href="dept_75.zip">zip</a></td></tr>
		</table></body></html>`)
	})
	mux.HandleFunc("/dept_93.zip", func(w http.ResponseWriter, r *http.Request) {
		w.Write(zipPayload)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newTestLoader(t *testing.T, serverURL string, limit int) *loader {
	t.Helper()
	return &loader{
		archiveURL: serverURL,
		dataDir:    t.TempDir(),
		fetchLimit: limit,
		httpClient: http.DefaultClient,
	}
}

func TestLoadDeduplicatesAndCaps(t *testing.T) {
	csvContent := testHeader + "\n" +
		"bat-001,93,93048,Montreuil,Résidentiel individuel,1930,420,2,F\n" +
		"bat-001,93,93048,Montreuil,Résidentiel individuel,1930,420,2,F\n" +
		",93,93055,Pantin,Tertiaire,1990,1200,5,C\n" +
		"bat-002,93,93055,Pantin,Tertiaire,1990.0,1200,5,C\n" +
		"bat-003,93,93001,Aubervilliers,Résidentiel collectif,1960,600,4,G\n"
	server := newArchiveServer(t, buildZip(t, csvContent))
	testLoader := newTestLoader(t, server.URL, 2)

	records, summary, err := testLoader.Load(context.Background(), "93")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected fetch limit of 2 records, got %d", len(records))
	}
	if records[0].Id != "bat-001" || records[1].Id != "bat-002" {
		t.Errorf("unexpected record order: %s, %s", records[0].Id, records[1].Id)
	}
	if records[1].ConstructionYear != 1990 {
		t.Errorf("expected float year to parse, got %d", records[1].ConstructionYear)
	}
	if summary.SkipReasons["duplicate_id"] != 1 {
		t.Errorf("expected 1 duplicate skip, got %d", summary.SkipReasons["duplicate_id"])
	}
	if summary.SkipReasons["missing_id"] != 1 {
		t.Errorf("expected 1 missing id skip, got %d", summary.SkipReasons["missing_id"])
	}

	raw := filepath.Join(testLoader.dataDir, "files", "raw_93.csv")
	if _, err := os.Stat(raw); err != nil {
		t.Errorf("expected raw sample at %s: %v", raw, err)
	}
}

func TestLoadSchemaMismatchIsFatal(t *testing.T) {
	csvContent := "some_id,some_other_column\nx,y\n"
	server := newArchiveServer(t, buildZip(t, csvContent))
	testLoader := newTestLoader(t, server.URL, 0)

	_, _, err := testLoader.Load(context.Background(), "93")
	if !errors.Is(err, buildingModel.ErrSchemaMismatch) {
		t.Fatalf("expected schema mismatch, got %v", err)
	}
	if err != nil && !strings.Contains(err.Error(), "batiment_groupe_id") {
		t.Errorf("expected missing column named in error, got %v", err)
	}
}

func TestLoadUnknownDepartment(t *testing.T) {
	server := newArchiveServer(t, buildZip(t, testHeader+"\n"))
	testLoader := newTestLoader(t, server.URL, 0)

	_, _, err := testLoader.Load(context.Background(), "2A")
	if !errors.Is(err, buildingModel.ErrSourceUnavailable) {
		t.Fatalf("expected source unavailable for unlisted department, got %v", err)
	}
}

func TestLoadUnreachableSource(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)
	testLoader := newTestLoader(t, server.URL, 0)

	_, _, err := testLoader.Load(context.Background(), "93")
	if !errors.Is(err, buildingModel.ErrSourceUnavailable) {
		t.Fatalf("expected source unavailable, got %v", err)
	}
}

func TestProcessedLedger(t *testing.T) {
	testLoader := newTestLoader(t, "http://unused", 0)

	processed, err := testLoader.Processed()
	if err != nil {
		t.Fatalf("unexpected error on empty ledger: %v", err)
	}
	if len(processed) != 0 {
		t.Fatalf("expected empty ledger, got %v", processed)
	}

	if err := testLoader.MarkProcessed("93"); err != nil {
		t.Fatalf("unexpected error marking department: %v", err)
	}
	if err := testLoader.MarkProcessed("75"); err != nil {
		t.Fatalf("unexpected error marking department: %v", err)
	}

	processed, err = testLoader.Processed()
	if err != nil {
		t.Fatalf("unexpected error reading ledger: %v", err)
	}
	if !processed["93"] || !processed["75"] {
		t.Errorf("expected both departments in ledger, got %v", processed)
	}
}
