package loader

import (
	"archive/zip"
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/avasseur/bdnb-rag/internal/config"
	"github.com/avasseur/bdnb-rag/internal/domain/buildingModel"
	"github.com/avasseur/bdnb-rag/pkg/logger_i"
)

var logger = logger_i.NewLogger("Source Loader")

// Columns a department export must carry. Anything else in the CSV is kept
// when present and zero-valued when not.
var requiredColumns = []string{
	"batiment_groupe_id",
	"code_departement_insee",
	"usage_principal",
	"annee_construction",
	"s_totale_bat",
	"classe_bilan_dpe",
}

const ledgerFile = "processed_depts.txt"

type Loader interface {
	// Load fetches one department export and returns its deduplicated raw
	// records, capped at the configured fetch limit.
	Load(ctx context.Context, department string) ([]buildingModel.BuildingRecord, *buildingModel.RunSummary, error)
	// Processed reports the departments already loaded in earlier runs.
	Processed() (map[string]bool, error)
	// MarkProcessed appends a department to the run ledger.
	MarkProcessed(department string) error
}

type loader struct {
	archiveURL string
	dataDir    string
	fetchLimit int
	httpClient *http.Client

	index archiveIndex
}

func NewLoader() Loader {
	return &loader{
		archiveURL: config.ArchiveURL,
		dataDir:    config.DataDir,
		fetchLimit: config.FetchLimit,
		httpClient: &http.Client{Timeout: config.DownloadTimeout},
	}
}

func (l *loader) Load(ctx context.Context, department string) ([]buildingModel.BuildingRecord, *buildingModel.RunSummary, error) {
	summary := buildingModel.NewRunSummary("load", department)

	if l.index == nil {
		index, err := l.fetchArchiveIndex(ctx)
		if err != nil {
			return nil, summary, err
		}
		l.index = index
	}

	url, ok := l.index[department]
	if !ok {
		return nil, summary, buildingModel.SourceError(department, fmt.Errorf("no archive listed"))
	}

	archivePath, err := l.downloadArchive(ctx, department, url)
	if err != nil {
		return nil, summary, err
	}
	defer os.Remove(archivePath)

	records, err := l.parseArchive(archivePath, summary)
	if err != nil {
		return nil, summary, err
	}

	if err := l.persistRawSample(department, records); err != nil {
		logger.Warn("Could not persist raw sample", "departement", department, "error", err)
	}

	summary.Produced = len(records)
	logger.Info("Department loaded",
		"departement", department,
		"loaded", summary.Loaded,
		"kept", summary.Produced,
		"skipped", summary.Skipped,
	)
	return records, summary, nil
}

// parseArchive reads the first CSV inside the downloaded zip. A header
// missing required columns is fatal; malformed data rows are skipped and
// counted.
func (l *loader) parseArchive(archivePath string, summary *buildingModel.RunSummary) ([]buildingModel.BuildingRecord, error) {
	archive, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}
	defer archive.Close()

	var csvFile *zip.File
	for _, f := range archive.File {
		if strings.HasSuffix(strings.ToLower(f.Name), ".csv") {
			csvFile = f
			break
		}
	}
	if csvFile == nil {
		return nil, fmt.Errorf("%w: archive contains no csv file", buildingModel.ErrSchemaMismatch)
	}

	content, err := csvFile.Open()
	if err != nil {
		return nil, fmt.Errorf("opening csv entry: %w", err)
	}
	defer content.Close()

	return l.parseCSV(content, summary)
}

func (l *loader) parseCSV(r io.Reader, summary *buildingModel.RunSummary) ([]buildingModel.BuildingRecord, error) {
	reader := csv.NewReader(bufio.NewReader(r))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: cannot read header: %v", buildingModel.ErrSchemaMismatch, err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(strings.ToLower(name))] = i
	}

	var missing []string
	for _, required := range requiredColumns {
		if _, ok := columns[required]; !ok {
			missing = append(missing, required)
		}
	}
	if len(missing) > 0 {
		return nil, buildingModel.SchemaMismatchError(missing)
	}

	var records []buildingModel.BuildingRecord
	seen := make(map[string]bool)

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			summary.Loaded++
			summary.Skip("malformed_row")
			continue
		}
		summary.Loaded++

		record := rowToRecord(row, columns)
		if record.Id == "" {
			summary.Skip("missing_id")
			continue
		}
		if seen[record.Id] {
			summary.Skip("duplicate_id")
			continue
		}
		seen[record.Id] = true
		records = append(records, record)

		if l.fetchLimit > 0 && len(records) >= l.fetchLimit {
			logger.Info("Fetch limit reached", "limit", l.fetchLimit)
			break
		}
	}
	return records, nil
}

func rowToRecord(row []string, columns map[string]int) buildingModel.BuildingRecord {
	field := func(name string) string {
		i, ok := columns[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	return buildingModel.BuildingRecord{
		Id:               field("batiment_groupe_id"),
		Department:       field("code_departement_insee"),
		CommuneCode:      field("code_commune_insee"),
		Commune:          field("libelle_commune_insee"),
		UsageCode:        field("usage_principal"),
		ConstructionYear: parseInt(field("annee_construction")),
		FloorArea:        parseFloat(field("s_totale_bat")),
		FloorCount:       parseInt(field("nb_niveau")),
		EnergyLabel:      strings.ToUpper(field("classe_bilan_dpe")),
		Latitude:         parseFloat(field("latitude")),
		Longitude:        parseFloat(field("longitude")),
	}
}

func parseInt(s string) int {
	if s == "" {
		return 0
	}
	// Year columns show up as "1930.0" in some exports.
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int(f)
	}
	return 0
}

func parseFloat(s string) float64 {
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return 0
	}
	return f
}

// persistRawSample keeps the raw rows of the latest run on disk, mirroring
// what was fetched before any feature work touched it.
func (l *loader) persistRawSample(department string, records []buildingModel.BuildingRecord) error {
	dir := filepath.Join(l.dataDir, "files")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	file, err := os.Create(filepath.Join(dir, fmt.Sprintf("raw_%s.csv", department)))
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{
		"batiment_groupe_id", "code_departement_insee", "code_commune_insee", "libelle_commune_insee",
		"usage_principal", "annee_construction", "s_totale_bat", "nb_niveau", "classe_bilan_dpe",
	}); err != nil {
		return err
	}
	for _, r := range records {
		if err := writer.Write([]string{
			r.Id, r.Department, r.CommuneCode, r.Commune,
			r.UsageCode, strconv.Itoa(r.ConstructionYear), strconv.FormatFloat(r.FloorArea, 'f', -1, 64),
			strconv.Itoa(r.FloorCount), r.EnergyLabel,
		}); err != nil {
			return err
		}
	}
	return writer.Error()
}

func (l *loader) Processed() (map[string]bool, error) {
	processed := make(map[string]bool)
	file, err := os.Open(filepath.Join(l.dataDir, ledgerFile))
	if os.IsNotExist(err) {
		return processed, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if department := strings.TrimSpace(scanner.Text()); department != "" {
			processed[department] = true
		}
	}
	return processed, scanner.Err()
}

func (l *loader) MarkProcessed(department string) error {
	if err := os.MkdirAll(l.dataDir, 0o755); err != nil {
		return err
	}
	file, err := os.OpenFile(filepath.Join(l.dataDir, ledgerFile), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = fmt.Fprintln(file, department)
	return err
}
