package integration

import (
	"testing"
	"time"

	"github.com/daleview/pool-finance/internal/config"
	"github.com/daleview/pool-finance/internal/forecast"
	"github.com/daleview/pool-finance/pkg/loans"
	"github.com/daleview/pool-finance/pkg/projection"
	"go.uber.org/zap"
)

// TestPerformance checks that evaluating the fixture stays interactive.
func TestPerformance(t *testing.T) {
	logger := zap.NewNop()

	conf, err := config.LoadConfiguration(testConfigPath)
	if err != nil {
		t.Fatalf("LoadConfiguration failed: %v", err)
	}

	start := time.Now()
	const iterations = 1000
	for i := 0; i < iterations; i++ {
		if _, err := forecast.GetForecast(logger, *conf); err != nil {
			t.Fatalf("GetForecast failed: %v", err)
		}
	}
	elapsed := time.Since(start)

	t.Logf("%d forecasts took %v (%v each)", iterations, elapsed, elapsed/iterations)
	if elapsed > 5*time.Second {
		t.Errorf("forecasts took too long: %v", elapsed)
	}
}

func BenchmarkGetForecast(b *testing.B) {
	conf, err := config.LoadConfiguration(testConfigPath)
	if err != nil {
		b.Fatalf("LoadConfiguration failed: %v", err)
	}
	logger := zap.NewNop()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := forecast.GetForecast(logger, *conf); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkComputeSchedule(b *testing.B) {
	for i := 0; i < b.N; i++ {
		if _, err := loans.ComputeSchedule(1000000, 8.5, 20); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkProjectYear(b *testing.B) {
	in := projection.YearInput{
		YearIndex:            15,
		BaseRevenue:          397765,
		BaseExpenses:         347000,
		InflationRatePercent: 2.5,
		BondAnnualPayment:    65115.77,
		BondTermYears:        10,
		LoanAnnualPayment:    88517.97,
		LoanTermYears:        20,
	}
	for i := 0; i < b.N; i++ {
		if _, err := projection.ProjectYear(in); err != nil {
			b.Fatal(err)
		}
	}
}
