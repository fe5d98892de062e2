// Package market fetches quotes and fundamentals for holdings.
//
// Every error returned by a Provider wraps apperrors.ErrRetrieval; the
// pipeline turns those into unavailable fields for the one holding. When the
// source answered but had nothing for the symbol, the error also wraps
// apperrors.ErrDataUnavailable.
package market

import (
	"context"
	"fmt"

	"github.com/stex99/dcf-tool/pkg/dcf/apperrors"
	"github.com/stex99/dcf-tool/pkg/dcf/types"
)

// Provider fetches market data for a symbol.
type Provider interface {
	Quote(ctx context.Context, sym string) (types.Quote, error)
	Fundamentals(ctx context.Context, sym string) (types.Fundamentals, error)
}

// StatementSource supplies a cash-flow statement for a symbol.
type StatementSource interface {
	Statement(ctx context.Context, sym string) (*types.Statement, error)
}

// WithStatements returns p with its cash-flow statement taken from s. Summary
// FCF and shares outstanding still come from p.
func WithStatements(p Provider, s StatementSource) Provider {
	return statementOverride{Provider: p, st: s}
}

type statementOverride struct {
	Provider
	st StatementSource
}

func (o statementOverride) Fundamentals(ctx context.Context, sym string) (types.Fundamentals, error) {
	f, err := o.Provider.Fundamentals(ctx, sym)
	if err != nil {
		return types.Fundamentals{}, err
	}
	st, err := o.st.Statement(ctx, sym)
	if err != nil {
		return types.Fundamentals{}, retrievalErr("statement", sym, err)
	}
	f.Statement = st
	return f, nil
}

func retrievalErr(what, sym string, err error) error {
	return fmt.Errorf("%w: %s %s: %w", apperrors.ErrRetrieval, what, sym, err)
}
