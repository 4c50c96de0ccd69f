package scraper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/farrelathalla/anvil-upgrades/item"
	"github.com/farrelathalla/anvil-upgrades/recipes"
)

// DefaultSourceURL is the wiki page listing dark steel upgrade recipes.
const DefaultSourceURL = "https://ftb.fandom.com/wiki/Dark_Steel_Upgrades"

// ErrNoTable is returned when a page has no upgrade recipe table.
var ErrNoTable = errors.New("no upgrade recipe table found")

var whitespace = regexp.MustCompile(`\s+`)

// CleanText removes extra whitespace
func cleanText(text string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(text, " "))
}

// columns holds the cell index of each recipe column in a table.
type columns struct {
	input, upgrade, output int
}

// headerColumns finds the Input/Upgrade/Output columns of a header row.
func headerColumns(row *goquery.Selection) (columns, bool) {
	cols := columns{-1, -1, -1}
	row.Find("th, td").Each(func(i int, cell *goquery.Selection) {
		switch strings.ToLower(cleanText(cell.Text())) {
		case "input", "base item", "item":
			cols.input = i
		case "upgrade", "upgrade item":
			cols.upgrade = i
		case "output", "result":
			cols.output = i
		}
	})
	return cols, cols.input >= 0 && cols.upgrade >= 0 && cols.output >= 0
}

// cellIdentity reads an item identity from a cell. A data-item attribute
// wins over the cell text so wikis can show display names.
func cellIdentity(cell *goquery.Selection) (item.Identity, bool, error) {
	text, ok := cell.Attr("data-item")
	if !ok {
		if code := cell.Find("code"); code.Length() > 0 {
			text = code.First().Text()
		} else {
			text = cell.Text()
		}
	}
	text = cleanText(text)
	if text == "" {
		return item.Identity{}, false, nil
	}
	id, err := item.Parse(text)
	if err != nil {
		return item.Identity{}, false, err
	}
	return id, true, nil
}

// Parse extracts upgrade paths from every recipe table in an HTML page.
func Parse(r io.Reader) ([]recipes.UpgradePath, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	var (
		paths    []recipes.UpgradePath
		found    bool
		parseErr error
	)
	doc.Find("table").EachWithBreak(func(ti int, table *goquery.Selection) bool {
		rows := table.Find("tr")
		cols, ok := headerColumns(rows.First())
		if !ok {
			return true
		}
		found = true

		rows.Slice(1, goquery.ToEnd).EachWithBreak(func(ri int, row *goquery.Selection) bool {
			cells := row.Find("td")
			in, inOK, err1 := cellIdentity(cells.Eq(cols.input))
			up, upOK, err2 := cellIdentity(cells.Eq(cols.upgrade))
			out, outOK, err3 := cellIdentity(cells.Eq(cols.output))
			if err := errors.Join(err1, err2, err3); err != nil {
				parseErr = fmt.Errorf("table %d row %d: %w", ti, ri+1, err)
				return false
			}
			if !inOK || !upOK || !outOK {
				return true
			}
			paths = append(paths, recipes.UpgradePath{Input: in, Upgrade: up, Output: out})
			return true
		})
		return parseErr == nil
	})

	if parseErr != nil {
		return nil, parseErr
	}
	if !found {
		return nil, ErrNoTable
	}
	return paths, nil
}

// Run scrapes url and saves the recipes as JSON to path
func Run(ctx context.Context, url, path string, logger *zap.Logger) ([]recipes.UpgradePath, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status code error: %d %s", res.StatusCode, res.Status)
	}

	paths, err := Parse(res.Body)
	if err != nil {
		return nil, err
	}
	if err := Save(path, paths); err != nil {
		return nil, err
	}

	logger.Info("Scraped upgrade recipes", zap.String("url", url), zap.String("file", path), zap.Int("paths", len(paths)))
	return paths, nil
}

// Save writes paths to path as indented JSON. The data goes to a temporary
// file first so a failed write never leaves a truncated file behind.
func Save(path string, paths []recipes.UpgradePath) (err error) {
	if paths == nil {
		paths = []recipes.UpgradePath{}
	}
	file, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = file.Close()
			_ = os.Remove(file.Name())
		}
	}()

	if err := file.Chmod(0644); err != nil {
		return fmt.Errorf("failed to set mode of %s: %w", file.Name(), err)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(paths); err != nil {
		return fmt.Errorf("failed to write JSON: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", file.Name(), err)
	}
	if err := os.Rename(file.Name(), path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

// LoadData returns all upgrade paths stored at path
func LoadData(path string) ([]recipes.UpgradePath, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open %s: %w", path, err)
	}
	defer f.Close()

	var paths []recipes.UpgradePath
	if err := json.NewDecoder(f).Decode(&paths); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return paths, nil
}
