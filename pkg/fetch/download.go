package fetch

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/coolbeans/gesetzessuche/pkg/gii"
	"github.com/coolbeans/gesetzessuche/pkg/library"
)

// Downloader fetches laws into a base directory holding the mapping
// file, the cached table of contents, and a data/ directory with the
// extracted XML files. It implements library.Downloader.
type Downloader struct {
	cfg     Config
	baseDir string
	client  *http.Client
	logger  *log.Logger
}

// Stats summarizes a batch download run.
type Stats struct {
	Downloaded int
	Failed     int
	Skipped    int
}

// NewDownloader creates a downloader rooted at baseDir.
func NewDownloader(baseDir string, cfg Config) *Downloader {
	return &Downloader{
		cfg:     cfg,
		baseDir: baseDir,
		client:  &http.Client{Timeout: cfg.Timeout.Std()},
		logger:  log.Default().WithPrefix("fetch"),
	}
}

func (d *Downloader) dataDir() string {
	return filepath.Join(d.baseDir, "data")
}

func (d *Downloader) mappingPath() string {
	return filepath.Join(d.baseDir, library.MappingFilename)
}

func (d *Downloader) tocPath() string {
	return filepath.Join(d.baseDir, "gii-toc.xml")
}

// DownloadTOC fetches the site-wide table of contents and stores it
// next to the mapping file.
func (d *Downloader) DownloadTOC() error {
	d.logger.Info("downloading table of contents", "url", d.cfg.TOCURL())
	data, err := d.get(d.cfg.TOCURL())
	if err != nil {
		return fmt.Errorf("failed to download table of contents: %w", err)
	}
	if err := os.WriteFile(d.tocPath(), data, 0o644); err != nil {
		return fmt.Errorf("failed to write table of contents: %w", err)
	}
	return nil
}

// TOC returns the parsed table of contents, downloading it first if no
// cached copy exists.
func (d *Downloader) TOC() ([]TOCEntry, error) {
	if _, err := os.Stat(d.tocPath()); os.IsNotExist(err) {
		if err := d.DownloadTOC(); err != nil {
			return nil, err
		}
	}
	f, err := os.Open(d.tocPath())
	if err != nil {
		return nil, fmt.Errorf("failed to open table of contents: %w", err)
	}
	defer f.Close()
	return ParseTOC(f)
}

// DownloadLaw fetches one law ZIP, extracts the first XML file it
// contains into the data directory, and returns the filename together
// with the jurabk and builddate read from the extracted document.
func (d *Downloader) DownloadLaw(url string) (filename, jurabk, builddate string, err error) {
	d.logger.Info("downloading law", "url", url)
	data, err := d.get(url)
	if err != nil {
		return "", "", "", fmt.Errorf("failed to download %s: %w", url, err)
	}

	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", "", "", fmt.Errorf("failed to open ZIP from %s: %w", url, err)
	}

	var xmlFile *zip.File
	for _, f := range archive.File {
		if strings.HasSuffix(f.Name, ".xml") {
			xmlFile = f
			break
		}
	}
	if xmlFile == nil {
		return "", "", "", fmt.Errorf("no XML file in archive from %s", url)
	}

	rc, err := xmlFile.Open()
	if err != nil {
		return "", "", "", fmt.Errorf("failed to read %s from archive: %w", xmlFile.Name, err)
	}
	content, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		return "", "", "", fmt.Errorf("failed to read %s from archive: %w", xmlFile.Name, err)
	}

	jurabk, builddate, err = lawIdentity(content)
	if err != nil {
		return "", "", "", fmt.Errorf("failed to identify law from %s: %w", url, err)
	}

	if err := os.MkdirAll(d.dataDir(), 0o755); err != nil {
		return "", "", "", fmt.Errorf("failed to create data directory: %w", err)
	}
	filename = filepath.Base(xmlFile.Name)
	target := filepath.Join(d.dataDir(), filename)
	if err := os.WriteFile(target, content, 0o644); err != nil {
		return "", "", "", fmt.Errorf("failed to write %s: %w", target, err)
	}

	d.logger.Info("law extracted", "jurabk", jurabk, "file", filename)
	return filename, jurabk, builddate, nil
}

// FetchLaw resolves a law code through the table of contents and
// downloads it. It satisfies library.Downloader for on-demand loading.
func (d *Downloader) FetchLaw(code string) (string, library.LawEntry, bool) {
	toc, err := d.TOC()
	if err != nil {
		d.logger.Error("table of contents unavailable", "err", err)
		return "", library.LawEntry{}, false
	}
	entry, ok := FindInTOC(code, toc)
	if !ok {
		d.logger.Warn("law not in table of contents", "code", code)
		return "", library.LawEntry{}, false
	}

	filename, jurabk, builddate, err := d.DownloadLaw(entry.URL)
	if err != nil {
		d.logger.Error("download failed", "code", code, "err", err)
		return "", library.LawEntry{}, false
	}
	return jurabk, library.LawEntry{
		Filename:  filename,
		Title:     entry.Title,
		Category:  entry.Category,
		Builddate: builddate,
		URLPath:   entry.URLPath,
	}, true
}

// BatchDownload fetches a list of laws, keeping the mapping file
// current. The mapping is saved every SaveInterval downloads and once
// at the end, so an interrupted run loses little work.
func (d *Downloader) BatchDownload(entries []TOCEntry) (Stats, error) {
	mapping, err := library.LoadMapping(d.mappingPath())
	if err != nil {
		return Stats{}, err
	}

	var stats Stats
	for i, entry := range entries {
		if d.cfg.MaxDownloads > 0 && stats.Downloaded >= d.cfg.MaxDownloads {
			d.logger.Info("download limit reached", "limit", d.cfg.MaxDownloads)
			break
		}
		if d.cfg.SkipExisting && d.onDisk(entry, mapping) {
			stats.Skipped++
			continue
		}
		if stats.Downloaded > 0 && d.cfg.RateLimit > 0 {
			time.Sleep(d.cfg.RateLimit.Std())
		}

		d.logger.Info("downloading", "n", i+1, "total", len(entries), "title", truncateTitle(entry.Title))
		filename, jurabk, builddate, err := d.DownloadLaw(entry.URL)
		if err != nil {
			stats.Failed++
			d.logger.Warn("download failed", "title", entry.Title, "err", err)
			continue
		}

		mapping[jurabk] = library.LawEntry{
			Filename:  filename,
			Title:     entry.Title,
			Category:  entry.Category,
			Builddate: builddate,
			URLPath:   entry.URLPath,
		}
		stats.Downloaded++

		if d.cfg.SaveInterval > 0 && stats.Downloaded%d.cfg.SaveInterval == 0 {
			if err := library.SaveMapping(d.mappingPath(), mapping); err != nil {
				d.logger.Error("failed to save mapping", "err", err)
			}
		}
	}

	if err := library.SaveMapping(d.mappingPath(), mapping); err != nil {
		return stats, err
	}
	return stats, nil
}

// onDisk reports whether a TOC entry is already present locally: some
// mapping entry shares its URL path and the mapped file exists.
func (d *Downloader) onDisk(entry TOCEntry, mapping library.Mapping) bool {
	for _, law := range mapping {
		if !strings.EqualFold(law.URLPath, entry.URLPath) {
			continue
		}
		if _, err := os.Stat(filepath.Join(d.dataDir(), law.Filename)); err == nil {
			return true
		}
	}
	return false
}

func (d *Downloader) get(url string) ([]byte, error) {
	resp, err := d.client.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}

// lawIdentity reads the jurabk and builddate out of a law XML document.
// The builddate sits on the root element; the first jurabk anywhere in
// the tree identifies the law.
func lawIdentity(content []byte) (jurabk, builddate string, err error) {
	root, err := gii.DecodeElement(bytes.NewReader(content))
	if err != nil {
		return "", "", err
	}
	builddate = strings.TrimSpace(root.Attr("builddate"))
	elem := findFirst(root, "jurabk")
	if elem == nil || strings.TrimSpace(elem.Text) == "" {
		return "", "", fmt.Errorf("no jurabk element found")
	}
	return strings.TrimSpace(elem.Text), builddate, nil
}

// findFirst returns the first element with the given tag in document
// order, depth first.
func findFirst(e *gii.Element, tag string) *gii.Element {
	if e.Tag == tag {
		return e
	}
	for _, child := range e.Children {
		if found := findFirst(child, tag); found != nil {
			return found
		}
	}
	return nil
}

func truncateTitle(title string) string {
	runes := []rune(title)
	if len(runes) <= 60 {
		return title
	}
	return string(runes[:60]) + "..."
}
