package invoice

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

const defaultRenderTimeout = 30 * time.Second

// A4 in inches
const (
	a4Width  = 8.27
	a4Height = 11.69
	margin   = 0.4
)

// ChromedpPrinter prints HTML to PDF through headless Chrome
type ChromedpPrinter struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc
	timeout     time.Duration
	logger      *zap.Logger
}

// NewChromedpPrinter connects to the browser at remoteURL, or launches a
// local headless Chrome when remoteURL is empty.
func NewChromedpPrinter(remoteURL string, timeout time.Duration, logger *zap.Logger) *ChromedpPrinter {
	if timeout <= 0 {
		timeout = defaultRenderTimeout
	}
	p := &ChromedpPrinter{timeout: timeout, logger: logger}

	if remoteURL != "" {
		p.allocCtx, p.allocCancel = chromedp.NewRemoteAllocator(context.Background(), remoteURL)
		return p
	}
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("font-render-hinting", "none"),
	)
	p.allocCtx, p.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
	return p
}

// PrintPDF renders the HTML document to an A4 PDF
func (p *ChromedpPrinter) PrintPDF(ctx context.Context, html string) ([]byte, error) {
	if strings.TrimSpace(html) == "" {
		return nil, errors.New("invoice: empty HTML document")
	}

	browserCtx, browserCancel := chromedp.NewContext(p.allocCtx,
		chromedp.WithLogf(func(format string, args ...interface{}) {
			p.logger.Debug(fmt.Sprintf(format, args...))
		}),
	)
	defer browserCancel()
	timeoutCtx, cancel := context.WithTimeout(browserCtx, p.timeout)
	defer cancel()

	// Stop rendering when the request goes away.
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var pdf []byte
	err := chromedp.Run(timeoutCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, html).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			data, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(a4Width).
				WithPaperHeight(a4Height).
				WithMarginTop(margin).
				WithMarginBottom(margin).
				WithMarginLeft(margin).
				WithMarginRight(margin).
				Do(ctx)
			if err != nil {
				return err
			}
			pdf = data
			return nil
		}),
	)
	if err != nil {
		if errors.Is(timeoutCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("invoice: rendering timed out after %v: %w", p.timeout, err)
		}
		return nil, fmt.Errorf("invoice: rendering failed: %w", err)
	}
	return pdf, nil
}

// Close shuts the browser allocator down
func (p *ChromedpPrinter) Close() {
	p.allocCancel()
}
