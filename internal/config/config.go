// Package config defines the data structures related to configuration and
// includes functions for loading and validating the config.
package config

import (
	"fmt"
	"io"
	"strings"

	"github.com/daleview/pool-finance/pkg/constants"
	"github.com/daleview/pool-finance/pkg/validation"
	"github.com/spf13/viper"
)

// Configuration holds all configuration for pool-finance.
type Configuration struct {
	Baseline  Baseline        `yaml:"baseline" json:"baseline"`
	Ranges    Ranges          `yaml:"ranges" json:"ranges"`
	KeyYears  []int           `yaml:"keyYears" json:"keyYears"`
	Scenarios []Scenario      `yaml:"scenarios" json:"scenarios"`
	Optimizer OptimizerConfig `yaml:"optimizer,omitempty" json:"optimizer,omitempty"`
	Logging   LoggingConfig   `yaml:"logging,omitempty" json:"logging,omitempty"`
	Output    OutputConfig    `yaml:"output,omitempty" json:"output,omitempty"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty" json:"level,omitempty"`           // debug, info, warn, error
	Format     string `yaml:"format,omitempty" json:"format,omitempty"`         // json, console
	OutputFile string `yaml:"outputFile,omitempty" json:"outputFile,omitempty"` // optional file output
}

// OptimizerConfig tunes the break-even search. Floor is the smallest
// acceptable operating surplus in any key year.
type OptimizerConfig struct {
	Floor         float64 `yaml:"floor" json:"floor"`
	MaxIterations int     `yaml:"maxIterations" json:"maxIterations"`
	Tolerance     float64 `yaml:"tolerance" json:"tolerance"`
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty" json:"format,omitempty"` // pretty, csv, json
}

// Baseline holds the facility's current operating figures.
type Baseline struct {
	Members           int     `yaml:"members" json:"members"`
	DuesRevenue       float64 `yaml:"duesRevenue" json:"duesRevenue"`
	SwimTeamRevenue   float64 `yaml:"swimTeamRevenue" json:"swimTeamRevenue"`
	WinterSwimRevenue float64 `yaml:"winterSwimRevenue" json:"winterSwimRevenue"`
	TotalRevenue      float64 `yaml:"totalRevenue" json:"totalRevenue"`
	Expenses          float64 `yaml:"expenses" json:"expenses"`
}

// AverageDues is the current dues revenue per member.
func (b Baseline) AverageDues() float64 {
	if b.Members <= 0 {
		return 0
	}
	return b.DuesRevenue / float64(b.Members)
}

// OtherRevenue is the part of total revenue not covered by dues, swim team
// and winter swim.
func (b Baseline) OtherRevenue() float64 {
	return b.TotalRevenue - b.DuesRevenue - b.SwimTeamRevenue - b.WinterSwimRevenue
}

// CurrentSurplus is the operating surplus before the renovation.
func (b Baseline) CurrentSurplus() float64 {
	return b.TotalRevenue - b.Expenses
}

// Ranges are the valid bounds of every interactive control. They are
// metadata for the presentation layer and only produce warnings here.
type Ranges struct {
	Members        validation.Range `yaml:"members" json:"members"`
	Dues           validation.Range `yaml:"dues" json:"dues"`
	SwimTeam       validation.Range `yaml:"swimTeam" json:"swimTeam"`
	WinterSwim     validation.Range `yaml:"winterSwim" json:"winterSwim"`
	Other          validation.Range `yaml:"other" json:"other"`
	ProjectCost    validation.Range `yaml:"projectCost" json:"projectCost"`
	Assessment     validation.Range `yaml:"assessment" json:"assessment"`
	Bond           validation.Range `yaml:"bond" json:"bond"`
	Inflation      validation.Range `yaml:"inflation" json:"inflation"`
	BondRate       validation.Range `yaml:"bondRate" json:"bondRate"`
	BondTerm       validation.Range `yaml:"bondTerm" json:"bondTerm"`
	CommercialRate validation.Range `yaml:"commercialRate" json:"commercialRate"`
	CommercialTerm validation.Range `yaml:"commercialTerm" json:"commercialTerm"`
}

// Scenario holds every user-adjustable assumption of one renovation plan.
type Scenario struct {
	Name          string           `yaml:"name" json:"name"`
	Active        bool             `yaml:"active" json:"active"`
	InflationRate float64          `yaml:"inflationRate" json:"inflationRate"`
	Revenue       RevenueModel     `yaml:"revenue" json:"revenue"`
	Project       ProjectCost      `yaml:"project" json:"project"`
	Financing     FinancingOptions `yaml:"financing" json:"financing"`
}

// RevenueModel is the projected post-renovation revenue.
type RevenueModel struct {
	Members     int     `yaml:"members" json:"members"`
	AverageDues float64 `yaml:"averageDues" json:"averageDues"`
	SwimTeam    float64 `yaml:"swimTeam" json:"swimTeam"`
	WinterSwim  float64 `yaml:"winterSwim" json:"winterSwim"`
	Other       float64 `yaml:"other" json:"other"`
}

// MembershipRevenue is members times average dues.
func (r RevenueModel) MembershipRevenue() float64 {
	return float64(r.Members) * r.AverageDues
}

// Total is the sum of every revenue stream.
func (r RevenueModel) Total() float64 {
	return r.MembershipRevenue() + r.SwimTeam + r.WinterSwim + r.Other
}

// ProjectCost is the renovation cost and the one-time member assessment.
type ProjectCost struct {
	TotalCost           float64 `yaml:"totalCost" json:"totalCost"`
	AssessmentPerMember float64 `yaml:"assessmentPerMember" json:"assessmentPerMember"`
}

// FinancingOptions configures the member bond program and the commercial loan.
type FinancingOptions struct {
	BondParticipants  int     `yaml:"bondParticipants" json:"bondParticipants"`
	AverageBondAmount float64 `yaml:"averageBondAmount" json:"averageBondAmount"`
	BondRate          float64 `yaml:"bondRate" json:"bondRate"`
	BondTerm          int     `yaml:"bondTerm" json:"bondTerm"`
	CommercialRate    float64 `yaml:"commercialRate" json:"commercialRate"`
	CommercialTerm    int     `yaml:"commercialTerm" json:"commercialTerm"`
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %s", err)
	}
	return decode(v)
}

// LoadConfigurationFromReader loads YAML-formatted configuration from r.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := newViper()
	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config data, %s", err)
	}
	return decode(v)
}

// Defaults returns the configuration used when nothing is loaded.
func Defaults() *Configuration {
	conf, err := decode(newViper())
	if err != nil {
		// Defaults are static and always decode.
		panic(err)
	}
	return conf
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}
	configuration.normalize()
	return &configuration, nil
}

// normalize fills in the parts of the configuration that have no scalar
// viper default.
func (conf *Configuration) normalize() {
	if len(conf.KeyYears) == 0 {
		conf.KeyYears = append([]int(nil), constants.DefaultKeyYears...)
	}
	if len(conf.Scenarios) == 0 {
		conf.Scenarios = []Scenario{DefaultScenario(conf.Baseline)}
	}
}

// ActiveScenarios returns the scenarios flagged active, in configuration order.
func (conf *Configuration) ActiveScenarios() []Scenario {
	var active []Scenario
	for _, scenario := range conf.Scenarios {
		if scenario.Active {
			active = append(active, scenario)
		}
	}
	return active
}
