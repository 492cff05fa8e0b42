package batch

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/Veraticus/keihi/internal/validation"
)

// MonthDirectory is one YYYY/MM folder under the receipts root.
type MonthDirectory struct {
	Period     string
	Path       string
	HasSummary bool
}

// FileInfo describes a receipt document in a month directory.
type FileInfo struct {
	Name  string
	Path  string
	Size  int64
	IsPDF bool
}

var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".webp": true, ".heic": true, ".heif": true,
}

// SummaryFileName is the workbook written for a period, e.g. 202501-summary.xlsx.
func SummaryFileName(period string) string {
	return period + "-summary.xlsx"
}

// MonthPath returns root/YYYY/MM for a period.
func MonthPath(root, period string) (string, error) {
	p, err := validation.ParsePeriod(period)
	if err != nil {
		return "", err
	}
	return filepath.Join(root, fmt.Sprintf("%04d", p.Year), fmt.Sprintf("%02d", p.Month)), nil
}

// ListMonthDirectories scans root for YYYY/MM folders, newest first. A
// missing root yields no directories.
func ListMonthDirectories(root string) ([]MonthDirectory, error) {
	years, err := os.ReadDir(root)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read receipts root: %w", err)
	}

	var months []MonthDirectory
	for _, year := range years {
		if !year.IsDir() || len(year.Name()) != 4 {
			continue
		}
		if _, err := strconv.Atoi(year.Name()); err != nil {
			continue
		}

		yearPath := filepath.Join(root, year.Name())
		entries, err := os.ReadDir(yearPath)
		if err != nil {
			continue
		}
		for _, month := range entries {
			if !month.IsDir() || len(month.Name()) != 2 {
				continue
			}
			n, err := strconv.Atoi(month.Name())
			if err != nil || n < 1 || n > 12 {
				continue
			}

			period := year.Name() + month.Name()
			monthPath := filepath.Join(yearPath, month.Name())
			_, statErr := os.Stat(filepath.Join(monthPath, SummaryFileName(period)))
			months = append(months, MonthDirectory{
				Period:     period,
				Path:       monthPath,
				HasSummary: statErr == nil,
			})
		}
	}

	sort.Slice(months, func(i, j int) bool { return months[i].Period > months[j].Period })
	return months, nil
}

// EnsureMonthDirectory creates root/YYYY/MM for period and returns its path.
func EnsureMonthDirectory(root, period string) (string, error) {
	dir, err := MonthPath(root, period)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return "", fmt.Errorf("failed to create month directory: %w", err)
	}
	return dir, nil
}

// ListReceiptFiles returns the images and PDFs in dir sorted by name.
// Summary workbooks and other files are skipped; a missing dir yields none.
func ListReceiptFiles(dir string) ([]FileInfo, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		name := entry.Name()
		if strings.HasSuffix(name, "-summary.xlsx") || strings.HasSuffix(name, "-summary.json") {
			continue
		}
		ext := strings.ToLower(filepath.Ext(name))
		isPDF := ext == ".pdf"
		if !isPDF && !imageExtensions[ext] {
			continue
		}

		var size int64
		if info, err := entry.Info(); err == nil {
			size = info.Size()
		}
		files = append(files, FileInfo{
			Name:  name,
			Path:  filepath.Join(dir, name),
			Size:  size,
			IsPDF: isPDF,
		})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// CopyToMonth copies source into the period's directory. A name already
// taken gets a numeric suffix, e.g. scan_1.jpg. It returns the destination.
func CopyToMonth(root, period, source string) (string, error) {
	dir, err := EnsureMonthDirectory(root, period)
	if err != nil {
		return "", err
	}

	base := filepath.Base(source)
	dest := filepath.Join(dir, base)
	if _, err := os.Stat(dest); err == nil {
		ext := filepath.Ext(base)
		stem := strings.TrimSuffix(base, ext)
		for n := 1; ; n++ {
			dest = filepath.Join(dir, fmt.Sprintf("%s_%d%s", stem, n, ext))
			if _, err := os.Stat(dest); os.IsNotExist(err) {
				break
			}
		}
	}

	if err := copyFile(source, dest); err != nil {
		return "", fmt.Errorf("failed to copy %s: %w", base, err)
	}
	return dest, nil
}

func copyFile(src, dst string) error {
	// #nosec G304 - src is a user-selected receipt
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	// #nosec G304 - dst is inside the month directory
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return err
	}
	return out.Close()
}
