// Package testutil holds fakes shared by package tests.
package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/stex99/dcf-tool/pkg/dcf/apperrors"
	"github.com/stex99/dcf-tool/pkg/dcf/types"
)

// MockMarket is an in-memory market data provider keyed by upper-case
// symbol. Symbols listed in Fail return a retrieval error wrapping the given
// cause. Unknown symbols return zero values, so an empty MockMarket yields an
// all-unavailable analysis. It counts upstream calls so tests can check
// caching.
type MockMarket struct {
	QuoteData       map[string]types.Quote
	FundamentalData map[string]types.Fundamentals
	Fail            map[string]error

	mu         sync.Mutex
	quoteCalls map[string]int
	fundCalls  map[string]int
}

// Quote returns the configured quote for sym.
func (m *MockMarket) Quote(ctx context.Context, sym string) (types.Quote, error) {
	k := m.count(&m.quoteCalls, sym)
	if err := m.fail(ctx, "quote", k); err != nil {
		return types.Quote{}, err
	}
	return m.QuoteData[k], nil
}

// Fundamentals returns the configured fundamentals for sym.
func (m *MockMarket) Fundamentals(ctx context.Context, sym string) (types.Fundamentals, error) {
	k := m.count(&m.fundCalls, sym)
	if err := m.fail(ctx, "fundamentals", k); err != nil {
		return types.Fundamentals{}, err
	}
	return m.FundamentalData[k], nil
}

// Calls returns how many quote and fundamentals requests sym received.
func (m *MockMarket) Calls(sym string) (quotes, fundamentals int) {
	k := strings.ToUpper(sym)
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.quoteCalls[k], m.fundCalls[k]
}

func (m *MockMarket) count(calls *map[string]int, sym string) string {
	k := strings.ToUpper(strings.TrimSpace(sym))
	m.mu.Lock()
	if *calls == nil {
		*calls = map[string]int{}
	}
	(*calls)[k]++
	m.mu.Unlock()
	return k
}

func (m *MockMarket) fail(ctx context.Context, what, k string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %s %s: %w", apperrors.ErrRetrieval, what, k, err)
	}
	if err, ok := m.Fail[k]; ok {
		return fmt.Errorf("%w: %s %s: %w", apperrors.ErrRetrieval, what, k, err)
	}
	return nil
}
