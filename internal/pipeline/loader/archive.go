package loader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/avasseur/bdnb-rag/internal/config"
	"github.com/avasseur/bdnb-rag/internal/domain/buildingModel"
)

var departmentRowPattern = regexp.MustCompile(`(?i)d[ée]partement\s+(\d{2,3}[AB]?)`)

// archiveIndex maps a department code to the zip archive holding its export.
type archiveIndex map[string]string

// fetchArchiveIndex scrapes the dataset archive page and collects one zip
// link per department. The page is a plain table, one row per department.
func (l *loader) fetchArchiveIndex(ctx context.Context) (archiveIndex, error) {
	body, err := l.getWithRetry(ctx, l.archiveURL)
	if err != nil {
		return nil, fmt.Errorf("%w: archive page: %v", buildingModel.ErrSourceUnavailable, err)
	}
	defer body.Close()

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("parsing archive page: %w", err)
	}

	index := make(archiveIndex)
	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		match := departmentRowPattern.FindStringSubmatch(row.Text())
		if match == nil {
			return
		}
		department := match[1]
		row.Find("a[href]").EachWithBreak(func(_ int, link *goquery.Selection) bool {
			href, _ := link.Attr("href")
			if !strings.HasSuffix(strings.ToLower(href), ".zip") {
				return true
			}
			index[department] = l.resolveURL(href)
			return false
		})
	})

	// Some mirrors skip the table and list bare links named after the
	// department code.
	if len(index) == 0 {
		doc.Find("a[href]").Each(func(_ int, link *goquery.Selection) {
			href, _ := link.Attr("href")
			if !strings.HasSuffix(strings.ToLower(href), ".zip") {
				return
			}
			if match := departmentRowPattern.FindStringSubmatch(link.Text()); match != nil {
				index[match[1]] = l.resolveURL(href)
			}
		})
	}

	if len(index) == 0 {
		return nil, fmt.Errorf("%w: no department archives found at %s", buildingModel.ErrSourceUnavailable, l.archiveURL)
	}
	logger.Info("Archive index fetched", "departements", len(index))
	return index, nil
}

func (l *loader) resolveURL(href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	return strings.TrimRight(l.archiveURL, "/") + "/" + strings.TrimLeft(href, "/")
}

// downloadArchive fetches a department archive to the local data directory
// and returns its path.
func (l *loader) downloadArchive(ctx context.Context, department, url string) (string, error) {
	if err := os.MkdirAll(filepath.Join(l.dataDir, "files"), 0o755); err != nil {
		return "", fmt.Errorf("creating download directory: %w", err)
	}
	target := filepath.Join(l.dataDir, "files", fmt.Sprintf("bdnb_dept_%s.zip", department))

	body, err := l.getWithRetry(ctx, url)
	if err != nil {
		return "", buildingModel.SourceError(department, err)
	}
	defer body.Close()

	file, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("creating archive file: %w", err)
	}
	defer file.Close()

	written, err := io.Copy(file, body)
	if err != nil {
		os.Remove(target)
		return "", buildingModel.SourceError(department, err)
	}
	logger.Info("Archive downloaded", "departement", department, "bytes", written)
	return target, nil
}

// getWithRetry issues a GET with a bounded retry budget, backing off between
// attempts. Non-2xx statuses count as failed attempts.
func (l *loader) getWithRetry(ctx context.Context, url string) (io.ReadCloser, error) {
	var lastErr error
	for attempt := 1; attempt <= config.HTTPRetryAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(config.HTTPRetryBackoff * time.Duration(attempt-1)):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		resp, err := l.httpClient.Do(req)
		if err != nil {
			lastErr = err
			logger.Warn("Fetch attempt failed", "url", url, "attempt", attempt, "error", err)
			continue
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			lastErr = fmt.Errorf("unexpected status %s", resp.Status)
			logger.Warn("Fetch attempt failed", "url", url, "attempt", attempt, "status", resp.Status)
			continue
		}
		return resp.Body, nil
	}
	return nil, fmt.Errorf("after %d attempts: %w", config.HTTPRetryAttempts, lastErr)
}
