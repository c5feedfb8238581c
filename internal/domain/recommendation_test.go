package domain

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocationRecommendationValidate(t *testing.T) {
	tests := []struct {
		name      string
		targetPct decimal.Decimal
		rationale string
		wantErr   bool
	}{
		{name: "lower bound", targetPct: decimal.Zero, rationale: "fully out", wantErr: false},
		{name: "upper bound", targetPct: decimal.NewFromInt(100), rationale: "all in", wantErr: false},
		{name: "mid range", targetPct: decimal.NewFromFloat(62.5), rationale: "hold majority", wantErr: false},
		{name: "negative", targetPct: decimal.NewFromInt(-5), rationale: "bad", wantErr: true},
		{name: "above hundred", targetPct: decimal.NewFromInt(150), rationale: "bad", wantErr: true},
		{name: "missing rationale", targetPct: decimal.NewFromInt(50), rationale: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := AllocationRecommendation{
				TargetPct: tt.targetPct,
				Rationale: tt.rationale,
				DecidedAt: time.Now(),
			}

			err := rec.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidRecommendation))
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestAllocationRecommendationStringDashesEmptyAnnotations(t *testing.T) {
	rec := AllocationRecommendation{TargetPct: decimal.NewFromInt(40), Rationale: "cooling off"}

	assert.Contains(t, rec.String(), `data_requests="-"`)
	assert.Contains(t, rec.String(), `data_issues="-"`)
}
