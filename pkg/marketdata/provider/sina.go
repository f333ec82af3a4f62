package provider

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/simplifiedchinese"

	"github.com/rxtech-lab/argo-realtime/pkg/errors"
)

const (
	// DefaultSinaBaseURL is the public Sina HQ quote endpoint.
	DefaultSinaBaseURL = "http://hq.sinajs.cn"
	sinaReferer        = "https://finance.sina.com.cn"
)

// Column names emitted by the Sina provider.
const (
	SinaColumnCode      = "代码"
	SinaColumnName      = "名称"
	SinaColumnPrice     = "最新价"
	SinaColumnPctChange = "涨跌幅"
)

// Offsets inside the comma separated hq_str payload.
const (
	sinaFieldName      = 0
	sinaFieldPrevClose = 2
	sinaFieldPrice     = 3
	sinaMinFields      = 4
)

// SinaClient fetches A-share quotes from the Sina HQ feed.
type SinaClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewSinaClient creates a Sina client. Zero config values fall back to defaults.
func NewSinaClient(cfg SinaConfig) *SinaClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultSinaBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultRequestTimeout} //nolint:exhaustruct
	}

	return &SinaClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

func (c *SinaClient) Name() string {
	return string(ProviderSina)
}

// Snapshot requests every code in a single list query. Codes without an
// exchange prefix get one derived from their first digit.
func (c *SinaClient) Snapshot(ctx context.Context, codes []string) (Table, error) {
	table := NewTable(SinaColumnCode, SinaColumnName, SinaColumnPrice, SinaColumnPctChange)
	if len(codes) == 0 {
		return table, nil
	}

	symbols := make([]string, 0, len(codes))
	bySymbol := make(map[string]string, len(codes))

	for _, code := range codes {
		symbol := SinaSymbol(code)
		symbols = append(symbols, symbol)
		bySymbol[symbol] = code
	}

	url := fmt.Sprintf("%s/list=%s", c.baseURL, strings.Join(symbols, ","))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return table, errors.Wrap(errors.ErrCodeProviderUnavailable, "failed to build sina request", err)
	}

	req.Header.Set("Referer", sinaReferer)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return table, errors.Wrap(errors.ErrCodeProviderUnavailable, "sina request failed", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusForbidden:
		return table, errors.Newf(errors.ErrCodeProviderRateLimited, "sina responded with status %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return table, errors.Newf(errors.ErrCodeProviderUnavailable, "sina responded with status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(simplifiedchinese.GBK.NewDecoder().Reader(resp.Body))
	if err != nil {
		return table, errors.Wrap(errors.ErrCodeProviderUnavailable, "failed to read sina response", err)
	}

	if err := parseSinaBody(string(body), bySymbol, &table); err != nil {
		return table, err
	}

	return table, nil
}

// parseSinaBody parses lines like
//
//	var hq_str_sh600519="贵州茅台,1700.00,1690.00,1710.50,...";
//
// Empty payloads mean the feed does not know the symbol and are skipped. A zero
// price marks a suspended stock or the pre-open auction and is skipped too.
func parseSinaBody(body string, bySymbol map[string]string, table *Table) error {
	scanner := bufio.NewScanner(strings.NewReader(body))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		symbol, payload, ok := splitSinaLine(line)
		if !ok {
			return errors.Newf(errors.ErrCodeProviderResponseInvalid, "unexpected sina line: %q", line)
		}

		if payload == "" {
			continue
		}

		code, known := bySymbol[symbol]
		if !known {
			continue
		}

		fields := strings.Split(payload, ",")
		if len(fields) < sinaMinFields {
			return errors.Newf(errors.ErrCodeProviderResponseInvalid, "sina payload for %s has %d fields", symbol, len(fields))
		}

		price, err := decimal.NewFromString(fields[sinaFieldPrice])
		if err != nil {
			return errors.Wrapf(errors.ErrCodeProviderResponseInvalid, err, "invalid sina price for %s", symbol)
		}

		if price.IsZero() {
			continue
		}

		pct := ""

		prevClose, err := decimal.NewFromString(fields[sinaFieldPrevClose])
		if err == nil && !prevClose.IsZero() {
			pct = price.Sub(prevClose).Div(prevClose).Mul(decimal.NewFromInt(100)).Round(2).String()
		}

		name := strings.TrimSpace(strings.ReplaceAll(fields[sinaFieldName], "XD", ""))
		table.Append(code, name, fields[sinaFieldPrice], pct)
	}

	if err := scanner.Err(); err != nil {
		return errors.Wrap(errors.ErrCodeProviderResponseInvalid, "failed to scan sina response", err)
	}

	return nil
}

func splitSinaLine(line string) (symbol string, payload string, ok bool) {
	const prefix = "var hq_str_"

	if !strings.HasPrefix(line, prefix) {
		return "", "", false
	}

	rest := strings.TrimPrefix(line, prefix)

	eq := strings.Index(rest, "=")
	if eq < 0 {
		return "", "", false
	}

	symbol = rest[:eq]
	quoted := strings.TrimSuffix(strings.TrimSpace(rest[eq+1:]), ";")

	if len(quoted) < 2 || quoted[0] != '"' || quoted[len(quoted)-1] != '"' {
		return "", "", false
	}

	return symbol, quoted[1 : len(quoted)-1], true
}

// SinaSymbol returns the exchange qualified symbol for an A-share code.
// 6xxxxx trades in Shanghai, 4xxxxx and 8xxxxx in Beijing, everything else in Shenzhen.
// Codes that already carry a prefix are returned lowercased.
func SinaSymbol(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))

	for _, prefix := range []string{"sh", "sz", "bj"} {
		if strings.HasPrefix(code, prefix) {
			return code
		}
	}

	if code == "" {
		return code
	}

	switch code[0] {
	case '6':
		return "sh" + code
	case '4', '8':
		return "bj" + code
	default:
		return "sz" + code
	}
}
