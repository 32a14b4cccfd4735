package main

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/reegis/coastdat-cli/internal/fetcher"
)

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download coastdat2 weather data and supporting files",
}

var downloadWeatherCmd = &cobra.Command{
	Use:   "weather",
	Short: "Download a packed weather year and load it into the local store",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		year, _ := cmd.Flags().GetInt("year")
		if year == 0 {
			return eris.New("download: --year is required")
		}

		log := zap.L().With(zap.String("command", "download"), zap.Int("year", year))

		archive := fmt.Sprintf(cfg.Coastdat.URLPattern, year)
		zipPath := filepath.Join(cfg.Paths.DataDir, "coastdat", archive)
		if err := downloadArchive(cmd, archive, zipPath); err != nil {
			return err
		}

		extractDir, err := os.MkdirTemp("", "coastdat-extract-")
		if err != nil {
			return eris.Wrap(err, "download: create extract dir")
		}
		defer os.RemoveAll(extractDir) //nolint:errcheck

		if _, err := fetcher.ExtractZIP(zipPath, extractDir); err != nil {
			return err
		}
		csvPath, err := fetcher.FindByExt(extractDir, ".csv")
		if err != nil {
			return err
		}

		st, err := openYearStore(ctx, year)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		f, err := os.Open(csvPath)
		if err != nil {
			return eris.Wrapf(err, "download: open %s", csvPath)
		}
		defer f.Close() //nolint:errcheck

		n, err := st.LoadArchiveCSV(ctx, f, year)
		if err != nil {
			return err
		}

		log.Info("weather year ready", zap.Int("series", n))
		fmt.Printf("Weather year %d loaded: %d series\n", year, n)
		return nil
	},
}

var downloadGridCmd = &cobra.Command{
	Use:   "grid",
	Short: "Download the grid point coordinate CSV",
	RunE: func(cmd *cobra.Command, _ []string) error {
		dest := filepath.Join(cfg.Paths.GeometryDir, cfg.Coastdat.GridCSV)
		rawURL := joinURL(cfg.Coastdat.BaseURL, cfg.Coastdat.GridCSV)

		f := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{})
		written, err := f.DownloadIfMissing(cmd.Context(), rawURL, dest)
		if err != nil {
			return err
		}
		if written {
			fmt.Printf("Grid CSV downloaded to %s\n", dest)
		} else {
			fmt.Printf("Grid CSV already present at %s\n", dest)
		}
		return nil
	},
}

var downloadBMWiCmd = &cobra.Command{
	Use:   "bmwi",
	Short: "Download the BMWi renewable-energy statistics workbook",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if cfg.BMWi.URL == "" {
			return eris.New("download: bmwi.url is not configured")
		}
		dest := filepath.Join(cfg.Paths.DataDir, "bmwi", filepath.Base(cfg.BMWi.URL))

		f := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{})
		written, err := f.DownloadIfMissing(cmd.Context(), cfg.BMWi.URL, dest)
		if err != nil {
			return err
		}
		if written {
			fmt.Printf("BMWi workbook downloaded to %s\n", dest)
		} else {
			fmt.Printf("BMWi workbook already present at %s\n", dest)
		}
		return nil
	},
}

// downloadArchive fetches the packed archive over HTTP, falling back to
// the FTP mirror when configured and the HTTP source fails.
func downloadArchive(cmd *cobra.Command, archive, zipPath string) error {
	ctx := cmd.Context()
	overwrite, _ := cmd.Flags().GetBool("overwrite")

	if !overwrite {
		if info, err := os.Stat(zipPath); err == nil && info.Size() > 0 {
			zap.L().Info("archive already downloaded", zap.String("path", zipPath))
			return nil
		}
	}

	httpFetcher := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		RateLimiters: fetcher.DefaultRateLimiters(),
	})
	rawURL := joinURL(cfg.Coastdat.BaseURL, archive)
	_, httpErr := httpFetcher.DownloadToFile(ctx, rawURL, zipPath)
	if httpErr == nil {
		return nil
	}

	if cfg.Coastdat.FTPURL == "" {
		return httpErr
	}
	zap.L().Warn("http download failed, trying ftp mirror",
		zap.String("url", rawURL),
		zap.Error(httpErr),
	)

	ftpFetcher := fetcher.NewFTPFetcher(fetcher.FTPOptions{})
	ftpURL := joinURL(cfg.Coastdat.FTPURL, archive)
	if _, ftpErr := ftpFetcher.DownloadToFile(ctx, ftpURL, zipPath); ftpErr != nil {
		return eris.Wrapf(ftpErr, "download: both http (%v) and ftp failed", httpErr)
	}
	return nil
}

func joinURL(base, name string) string {
	if u, err := url.Parse(base); err == nil && u.Path != "" {
		u.Path = strings.TrimRight(u.Path, "/") + "/" + name
		return u.String()
	}
	return strings.TrimRight(base, "/") + "/" + name
}

func init() {
	downloadWeatherCmd.Flags().Int("year", 0, "weather year to download")
	downloadWeatherCmd.Flags().Bool("overwrite", false, "redownload even if the archive exists")
	downloadCmd.AddCommand(downloadWeatherCmd)
	downloadCmd.AddCommand(downloadGridCmd)
	downloadCmd.AddCommand(downloadBMWiCmd)
	rootCmd.AddCommand(downloadCmd)
}
