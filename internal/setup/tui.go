// Package setup provides a terminal wizard that writes a starter YAML config.
package setup

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/jonasdebeukelaer/bot-1/config"
)

var (
	subtle    = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	special   = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Background(highlight).
			Padding(1, 2).
			Bold(true).
			MarginBottom(1)

	stepStyle = lipgloss.NewStyle().
			Foreground(special).
			Bold(true).
			MarginTop(1).
			MarginBottom(0)
)

// RunTUI launches the terminal configuration wizard.
func RunTUI() error {
	var (
		platform         string
		pair             string
		cycleIntervalStr string
		apiURL           string
		model            string
		newsFeedURL      string
		webAddr          string
		confirm          bool
	)

	// defaults
	pair = "BTC_GBP"
	cycleIntervalStr = "1h"
	apiURL = "https://api.openai.com/v1/chat/completions"
	model = "gpt-4o"
	webAddr = ":8080"

	fmt.Print("\033[H\033[2J") // Clear screen
	fmt.Println(headerStyle.Render("BOT CONFIG WIZARD"))
	fmt.Println(lipgloss.NewStyle().Foreground(subtle).Render("Let's get your rebalancing bot set up.\n"))

	// platform
	fmt.Println(stepStyle.Render("STEP 1: PLATFORM"))
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Select Exchange Platform").
				Options(
					huh.NewOption("Binance", "binance"),
					huh.NewOption("Bybit", "bybit"),
				).
				Value(&platform),
		),
	).Run()
	if err != nil {
		return err
	}

	// pair
	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("BOT CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 2: ASSET"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Trading Pair").
				Description("Must contain underscore (e.g. BTC_GBP)").
				Value(&pair).
				Validate(func(s string) error {
					if s == "" {
						return fmt.Errorf("pair cannot be empty")
					}
					if !containsUnderscore(s) {
						return fmt.Errorf("invalid format: must be BASE_QUOTE (e.g. BTC_GBP)")
					}
					return nil
				}),
		),
	).Run()
	if err != nil {
		return err
	}

	// cycle interval
	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("BOT CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 3: TIMING"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Decision Cycle Interval").
				Description("Duration string, minimum 1m (e.g. 30m, 1h, 4h)").
				Value(&cycleIntervalStr).
				Validate(func(s string) error {
					d, err := time.ParseDuration(s)
					if err != nil {
						return err
					}
					if d < time.Minute {
						return fmt.Errorf("must be at least 1m")
					}
					return nil
				}),
		),
	).Run()
	if err != nil {
		return err
	}

	// LLM settings
	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("BOT CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 4: DECISION LLM"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("LLM API URL").
				Value(&apiURL),
			huh.NewInput().
				Title("Model Name").
				Value(&model),
			huh.NewInput().
				Title("News Feed URL").
				Description("Google Alerts Atom feed (optional, leave empty to skip news)").
				Value(&newsFeedURL),
			huh.NewInput().
				Title("Web UI Address").
				Value(&webAddr),
		),
	).Run()
	if err != nil {
		return err
	}

	// confirmation
	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("BOT CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("FINAL CONFIRMATION"))

	summary := fmt.Sprintf(
		"Platform: %s\nPair: %s\nCycle Interval: %s\nLLM: %s\nModel: %s\n",
		platform, pair, cycleIntervalStr, apiURL, model,
	)
	fmt.Println(lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(1).Render(summary))

	err = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Save Configuration?").
				Affirmative("Yes, save and start").
				Negative("No, exit").
				Value(&confirm),
		),
	).Run()
	if err != nil {
		return err
	}

	if !confirm {
		return fmt.Errorf("setup cancelled by user")
	}

	cycleInterval, _ := time.ParseDuration(cycleIntervalStr)

	cfgTmp := config.ConfigTmp{
		Platform:      platform,
		Pair:          pair,
		CycleInterval: cycleInterval,
		LLMAPIURL:     apiURL,
		LLMModel:      model,
		NewsFeedURL:   newsFeedURL,
		WebAddr:       webAddr,
	}

	data, err := yaml.Marshal(cfgTmp)
	if err != nil {
		return fmt.Errorf("failed to generate yaml: %w", err)
	}

	filename := "config.gen.yaml"
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to save config file: %w", err)
	}

	fmt.Println(lipgloss.NewStyle().Foreground(special).Render(fmt.Sprintf("\n✓ Configuration saved to %s\nStart the bot with --config %s", filename, filename)))
	time.Sleep(1500 * time.Millisecond) // small pause to read success message
	return nil
}

func containsUnderscore(s string) bool {
	for _, r := range s {
		if r == '_' {
			return true
		}
	}
	return false
}
