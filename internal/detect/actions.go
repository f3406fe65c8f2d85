package detect

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/gamelens/gamelens/internal/common"
	detectpkg "github.com/gamelens/gamelens/pkg/detect"
	"github.com/gamelens/gamelens/pkg/fetcher"
	"github.com/gamelens/gamelens/pkg/pagedom"
	"github.com/gamelens/gamelens/pkg/perf"
	"github.com/gamelens/gamelens/pkg/stability"
)

// DetectAction classifies a page and extracts its game entity. With --file
// the HTML comes from disk and the URL is only used for classification;
// otherwise the page is fetched live.
func DetectAction(c *cli.Context) error {
	logger := common.Logger(c)
	cfg, err := common.Config(c)
	if err != nil {
		return err
	}

	rawURL := c.String("url")
	if rawURL == "" {
		return fmt.Errorf("no URL provided via --url flag")
	}
	rawURL, err = common.ValidateURL(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	var src pagedom.Source
	if path := c.String("file"); path != "" {
		src = pagedom.NewFileSource(rawURL, path)
	} else {
		src = pagedom.NewLiveSource(rawURL, fetcher.NewFetcher(cfg.FetchTimeout))
	}

	page, err := pagedom.FromSource(c.Context, src)
	if err != nil {
		return fmt.Errorf("failed to load page: %w", err)
	}

	pm := perf.NewMonitor(0, cfg.LatencyTarget, logger)
	var monitor *stability.Monitor
	if !c.Bool("no-wait") {
		monitor = stability.NewMonitor(cfg.StabilityInterval, cfg.StabilityMaxWait, cfg.StabilityThreshold, logger)
	}
	detector := detectpkg.NewDetector(cfg, monitor, pm, logger)

	result := detector.Detect(c.Context, page)
	if result.Success {
		logger.Info("detection complete",
			"page_type", result.Entity.PageType,
			"title", result.Entity.Title,
			"title_source", result.Entity.TitleSource,
			"duration", result.DetectionTime)
	} else {
		logger.Warn("detection failed", "code", result.ErrorCode, "detail", result.ErrorDetail)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// SessionAction runs a full page pass: detect, fetch completion data and
// mount the overlay, then prints the mutated document so the result can be
// inspected.
func SessionAction(c *cli.Context) error {
	rt, err := common.Build(c)
	if err != nil {
		return err
	}
	defer rt.Close()

	rawURL := c.String("url")
	if rawURL == "" {
		return fmt.Errorf("no URL provided via --url flag")
	}
	rawURL, err = common.ValidateURL(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	var src pagedom.Source
	if path := c.String("file"); path != "" {
		src = pagedom.NewFileSource(rawURL, path)
	} else {
		src = pagedom.NewLiveSource(rawURL, fetcher.NewFetcher(rt.Config.FetchTimeout))
	}

	page, err := pagedom.FromSource(c.Context, src)
	if err != nil {
		return fmt.Errorf("failed to load page: %w", err)
	}

	session := rt.Engine.NewSession(page)
	defer session.Close()

	result := session.Refresh(c.Context)
	if !result.Success {
		rt.Logger.Warn("page not enriched", "code", result.ErrorCode, "detail", result.ErrorDetail)
		return cli.Exit(fmt.Sprintf("detection failed: %s", result.ErrorCode), 1)
	}

	html, err := page.HTML()
	if err != nil {
		return fmt.Errorf("failed to render page: %w", err)
	}
	fmt.Fprintln(os.Stdout, html)
	return nil
}
