// Package setup provides the interactive deposit wizard.
package setup

import (
	"context"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/errors"

	"github.com/vadiminshakov/stellarvault/internal/domain"
	"github.com/vadiminshakov/stellarvault/pkg/fixedpoint"
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

	resultStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(special).
			Padding(1, 2).
			MarginTop(1)
)

// Depositor is the engine surface the wizard drives.
type Depositor interface {
	ProcessDeposit(ctx context.Context, user string, risk domain.RiskLevel, gross uint64, intentID string) (uint64, error)
}

// VaultViewer reads vault state for the result screen.
type VaultViewer interface {
	Snapshot(risk domain.RiskLevel) (domain.VaultSnapshot, error)
	InsurancePool() uint64
}

// RunWizard walks the user through one deposit: tier selection, amount and
// confirmation, then runs the deposit and renders the outcome.
func RunWizard(ctx context.Context, engine Depositor, vaults VaultViewer, user string) error {
	var (
		tier      string
		amountStr string
		confirm   bool
	)

	fmt.Print("\033[H\033[2J") // Clear screen
	fmt.Println(headerStyle.Render("STELLARVAULT DEPOSIT"))
	fmt.Println(lipgloss.NewStyle().Foreground(subtle).Render("Risk-tiered yield aggregation on Stellar.\n"))

	fmt.Println(stepStyle.Render("STEP 1: RISK TIER"))
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Choose your risk tier").
				Options(
					huh.NewOption("Low: 3.50% APY, 0.50% insurance fee, YieldBlox Lending", "low"),
					huh.NewOption("Medium: 8.50% APY, 1.00% insurance fee, 60% Aqua LP + 40% YieldBlox", "medium"),
					huh.NewOption("High: 15.00% APY, 2.00% insurance fee, Money Market", "high"),
				).
				Value(&tier),
		),
	).Run()
	if err != nil {
		return err
	}

	risk, err := domain.ParseRiskLevel(tier)
	if err != nil {
		return err
	}

	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("STELLARVAULT DEPOSIT"))
	fmt.Println(stepStyle.Render("STEP 2: AMOUNT"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Deposit amount (XLM)").
				Description("Up to seven decimal places (e.g. 100.5)").
				Value(&amountStr).
				Validate(func(s string) error {
					stroops, err := fixedpoint.ParseAmount(s)
					if err != nil {
						return err
					}
					if stroops == 0 {
						return fmt.Errorf("amount must be greater than zero")
					}
					return nil
				}),
		),
	).Run()
	if err != nil {
		return err
	}

	gross, err := fixedpoint.ParseAmount(amountStr)
	if err != nil {
		return err
	}

	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("STELLARVAULT DEPOSIT"))
	fmt.Println(stepStyle.Render("STEP 3: CONFIRM"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Deposit %s XLM into the %s tier?", fixedpoint.FormatAmount(gross), risk)).
				Value(&confirm),
		),
	).Run()
	if err != nil {
		return err
	}
	if !confirm {
		fmt.Println(lipgloss.NewStyle().Foreground(subtle).Render("Deposit cancelled."))
		return nil
	}

	shares, err := engine.ProcessDeposit(ctx, user, risk, gross, "")
	if err != nil {
		return errors.Wrap(err, "deposit failed")
	}

	snapshot, err := vaults.Snapshot(risk)
	if err != nil {
		return err
	}

	result := fmt.Sprintf(
		"DEPOSIT COMPLETE\n\nTier:          %s\nAmount:        %s XLM\nShares minted: %d\nShare price:   %s XLM\nVault value:   %s XLM\nInsurance pool: %s XLM",
		risk,
		fixedpoint.FormatAmount(gross),
		shares,
		fixedpoint.FormatAmount(snapshot.SharePrice),
		fixedpoint.FormatAmount(snapshot.TotalValue),
		fixedpoint.FormatAmount(vaults.InsurancePool()),
	)
	fmt.Println(resultStyle.Render(result))
	return nil
}
