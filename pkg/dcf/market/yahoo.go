package market

import (
	"context"
	"encoding/json"

	yfgo "github.com/komsit37/yf-go"

	"github.com/stex99/dcf-tool/pkg/dcf/apperrors"
	"github.com/stex99/dcf-tool/pkg/dcf/types"
)

// Modules requested for fundamentals.
var fundamentalModules = []yfgo.QuoteSummaryModule{
	yfgo.QuoteSummaryModule("defaultKeyStatistics"),
	yfgo.QuoteSummaryModule("financialData"),
	yfgo.QuoteSummaryModule("cashflowStatementHistory"),
}

// YahooProvider implements Provider using yf-go.
type YahooProvider struct {
	client *yfgo.Client
}

func NewYahooProvider() *YahooProvider {
	return &YahooProvider{client: yfgo.NewClient()}
}

func (p *YahooProvider) Quote(ctx context.Context, sym string) (types.Quote, error) {
	res, err := p.client.QuoteSummaryTyped(ctx, sym, []yfgo.QuoteSummaryModule{yfgo.ModulePrice})
	if err != nil {
		return types.Quote{}, retrievalErr("quote", sym, err)
	}
	if res.Price == nil {
		return types.Quote{}, retrievalErr("quote", sym, apperrors.ErrDataUnavailable)
	}

	var q types.Quote
	if raw := res.Price.RegularMarketPrice.Raw; raw != nil {
		q.Price = types.Float(*raw)
	}
	if res.Price.ShortName != "" {
		q.Name = res.Price.ShortName
	} else if res.Price.LongName != "" {
		q.Name = res.Price.LongName
	}
	return q, nil
}

func (p *YahooProvider) Fundamentals(ctx context.Context, sym string) (types.Fundamentals, error) {
	raw, err := p.client.QuoteSummary(ctx, sym, fundamentalModules)
	if err != nil {
		return types.Fundamentals{}, retrievalErr("fundamentals", sym, err)
	}
	data, err := rawJSON(raw)
	if err != nil {
		return types.Fundamentals{}, retrievalErr("fundamentals", sym, err)
	}
	f, err := ParseQuoteSummary(data)
	if err != nil {
		return types.Fundamentals{}, retrievalErr("fundamentals", sym, err)
	}
	return f, nil
}

// rawJSON returns the JSON bytes behind a raw quoteSummary response.
func rawJSON(v any) ([]byte, error) {
	switch b := v.(type) {
	case []byte:
		return b, nil
	case json.RawMessage:
		return b, nil
	case string:
		return []byte(b), nil
	default:
		return json.Marshal(b)
	}
}
