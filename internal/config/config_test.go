package config

import (
	"strings"
	"testing"

	"github.com/daleview/pool-finance/pkg/constants"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfigPath = "../../test/test_config.yaml"

func TestLoadConfiguration(t *testing.T) {
	tests := []struct {
		name       string
		configPath string
		wantError  bool
	}{
		{
			name:       "Non-existent config file",
			configPath: "nonexistent.yaml",
			wantError:  true,
		},
		{
			name:       "Test fixture",
			configPath: testConfigPath,
		},
		{
			name:       "Example config",
			configPath: "../../" + constants.ExampleConfigFile,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := LoadConfiguration(tt.configPath)
			if tt.wantError {
				if err == nil {
					t.Errorf("LoadConfiguration() expected error but got none")
				}
				return
			}
			if err != nil {
				t.Errorf("LoadConfiguration() error = %v", err)
				return
			}
			if config == nil {
				t.Errorf("LoadConfiguration() returned nil config")
			}
		})
	}
}

func TestLoadConfigurationStructure(t *testing.T) {
	config, err := LoadConfiguration(testConfigPath)
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}

	if config.Baseline.Members != 325 {
		t.Errorf("Expected Members = 325, got %v", config.Baseline.Members)
	}
	if config.Baseline.Expenses != 347000 {
		t.Errorf("Expected Expenses = 347000, got %v", config.Baseline.Expenses)
	}

	expectedScenarios := []string{"default plan", "dues increase", "no renovation bonds"}
	if len(config.Scenarios) != len(expectedScenarios) {
		t.Fatalf("Expected %d scenarios, got %d", len(expectedScenarios), len(config.Scenarios))
	}
	for i, expectedName := range expectedScenarios {
		if config.Scenarios[i].Name != expectedName {
			t.Errorf("Expected scenario name %s, got %s", expectedName, config.Scenarios[i].Name)
		}
	}

	first := config.Scenarios[0]
	assert.True(t, first.Active)
	assert.Equal(t, 2.5, first.InflationRate)
	assert.Equal(t, 697.0, first.Revenue.AverageDues)
	assert.Equal(t, 55240.0, first.Revenue.Other)
	assert.Equal(t, 2000000.0, first.Project.TotalCost)
	assert.Equal(t, 100, first.Financing.BondParticipants)
	assert.Equal(t, 10, first.Financing.BondTerm)
	assert.Equal(t, 8.5, first.Financing.CommercialRate)

	assert.False(t, config.Scenarios[2].Active)
	assert.Equal(t, []int{0, 5, 10, 15, 20}, config.KeyYears)
	assert.Equal(t, "warn", config.Logging.Level)
	assert.Equal(t, constants.OutputFormatPretty, config.Output.Format)

	// Ranges are not in the fixture and come from the defaults.
	assert.Equal(t, 250.0, config.Ranges.Members.Min)
	assert.Equal(t, 30.0, config.Ranges.CommercialTerm.Max)
}

func TestLoadConfigurationFromReader(t *testing.T) {
	data := `
baseline:
  expenses: 300000
keyYears: [0, 1, 2]
`
	config, err := LoadConfigurationFromReader(strings.NewReader(data))
	require.NoError(t, err)

	assert.Equal(t, 300000.0, config.Baseline.Expenses)
	assert.Equal(t, defaultMembers, config.Baseline.Members)
	assert.Equal(t, []int{0, 1, 2}, config.KeyYears)
	require.Len(t, config.Scenarios, 1)
	assert.Equal(t, defaultScenarioName, config.Scenarios[0].Name)
}

func TestLoadConfigurationFromReaderInvalidYAML(t *testing.T) {
	_, err := LoadConfigurationFromReader(strings.NewReader("baseline: [unclosed"))
	assert.Error(t, err)
}

func TestLoadConfigurationEnvOverride(t *testing.T) {
	t.Setenv("POOLFINANCE_BASELINE_EXPENSES", "350000")

	config, err := LoadConfiguration(testConfigPath)
	require.NoError(t, err)
	assert.Equal(t, 350000.0, config.Baseline.Expenses)
}

func TestDefaults(t *testing.T) {
	config := Defaults()

	assert.Equal(t, Baseline{
		Members:           325,
		DuesRevenue:       226760,
		SwimTeamRevenue:   45000,
		WinterSwimRevenue: 71000,
		TotalRevenue:      398000,
		Expenses:          347000,
	}, config.Baseline)
	assert.Equal(t, constants.DefaultKeyYears, config.KeyYears)
	require.Len(t, config.Scenarios, 1)
	assert.NoError(t, config.Validate())
	assert.Empty(t, config.ValidateConfiguration())
}

func TestDefaultsDoNotAliasKeyYears(t *testing.T) {
	config := Defaults()
	config.KeyYears[0] = 99
	assert.Equal(t, 0, constants.DefaultKeyYears[0])
}

func TestBaselineDerivedValues(t *testing.T) {
	baseline := Defaults().Baseline

	assert.InDelta(t, 697.72, baseline.AverageDues(), 0.01)
	assert.InDelta(t, 55240, baseline.OtherRevenue(), 1e-9)
	assert.InDelta(t, 51000, baseline.CurrentSurplus(), 1e-9)
	assert.Zero(t, Baseline{}.AverageDues())
}

func TestDefaultScenario(t *testing.T) {
	scenario := DefaultScenario(Defaults().Baseline)

	assert.Equal(t, "default", scenario.Name)
	assert.True(t, scenario.Active)
	assert.Equal(t, 325, scenario.Revenue.Members)
	assert.Equal(t, 697.0, scenario.Revenue.AverageDues)
	assert.InDelta(t, 397765, scenario.Revenue.Total(), 1e-9)
	assert.InDelta(t, 226525, scenario.Revenue.MembershipRevenue(), 1e-9)
	assert.Equal(t, 100, scenario.Financing.BondParticipants)
	assert.Equal(t, 20, scenario.Financing.CommercialTerm)
}

func TestDefaultScenarioSmallMembership(t *testing.T) {
	scenario := DefaultScenario(Baseline{Members: 40, DuesRevenue: 28000})
	assert.Equal(t, 40, scenario.Financing.BondParticipants)
	assert.Equal(t, 700.0, scenario.Revenue.AverageDues)
}

func TestActiveScenarios(t *testing.T) {
	config, err := LoadConfiguration(testConfigPath)
	require.NoError(t, err)

	active := config.ActiveScenarios()
	require.Len(t, active, 2)
	assert.Equal(t, "default plan", active[0].Name)
	assert.Equal(t, "dues increase", active[1].Name)
}
