// Package consent implements the confirmation gate that runs after target
// resolution and before any resource is touched. It is the only cancellation
// point of a provisioning run.
package consent

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/appfx/appfx/internal/reconcile"
	"github.com/appfx/appfx/internal/ui"
	apperrors "github.com/appfx/appfx/pkg/errors"
)

// DocsURL is what the "Learn more" action opens.
const DocsURL = "https://appfx.dev/docs/provision"

// CostNotice is always shown: provisioning can create billable resources.
const CostNotice = "Provisioning creates cloud resources that may incur charges to this subscription."

const (
	actionProvision = "Provision"
	actionLearnMore = "Learn more"
	actionCancel    = "Cancel"
)

// Decision is the gate outcome. Declining is not a Decision; it surfaces as a
// cancellation error so callers can never mistake it for consent.
type Decision string

// DecisionProceed is the only affirmative outcome.
const DecisionProceed Decision = "proceed"

// Summary is the fact set shown to the operator before provisioning begins.
type Summary struct {
	EnvName              string
	SwitchedTenant       bool
	SwitchedSubscription bool
	CloudUsername        string
	SubscriptionName     string
	SubscriptionID       string
	MessagingUsername    string

	// NewResourceGroup names the group this run will create, empty when the
	// target group already exists.
	NewResourceGroup string
}

// FromTarget builds the summary for a resolved target.
func FromTarget(envName string, target *reconcile.Target) Summary {
	s := Summary{
		EnvName:              envName,
		SwitchedTenant:       target.SwitchedTenant,
		SwitchedSubscription: target.SwitchedSubscription,
		CloudUsername:        target.CloudUsername,
		SubscriptionName:     target.SubscriptionName,
		SubscriptionID:       target.SubscriptionID,
		MessagingUsername:    target.MessagingUsername,
	}
	if target.NeedsResourceGroup {
		s.NewResourceGroup = target.ResourceGroupName
	}
	return s
}

// Sentences renders the facts in their fixed order: switch notice first when
// any switch happened, then the cloud account, the subscription, and the
// messaging platform account.
func (s Summary) Sentences() []string {
	var facts []string
	switch {
	case s.SwitchedTenant && s.SwitchedSubscription:
		facts = append(facts, fmt.Sprintf("This run targets a different tenant and subscription than the previous provision of %q.", s.EnvName))
	case s.SwitchedTenant:
		facts = append(facts, fmt.Sprintf("This run targets a different tenant than the previous provision of %q.", s.EnvName))
	case s.SwitchedSubscription:
		facts = append(facts, fmt.Sprintf("This run targets a different subscription than the previous provision of %q.", s.EnvName))
	}
	facts = append(facts,
		fmt.Sprintf("Cloud account: %s.", s.CloudUsername),
		fmt.Sprintf("Subscription: %s (%s).", s.SubscriptionName, s.SubscriptionID),
		fmt.Sprintf("Messaging platform account: %s.", s.MessagingUsername),
	)
	return facts
}

// Gate asks the operator whether provisioning may proceed.
type Gate struct {
	prompt ui.Interactor
	out    io.Writer
}

// NewGate creates a Gate writing its summary to out.
func NewGate(prompt ui.Interactor, out io.Writer) *Gate {
	if out == nil {
		out = os.Stdout
	}
	return &Gate{prompt: prompt, out: out}
}

// Preview shows the summary without prompting. Dry runs use it so the
// operator sees exactly what a real run would ask consent for.
func (g *Gate) Preview(summary Summary) {
	fmt.Fprintln(g.out, Render(summary))
}

// Confirm shows the summary and prompts until the operator decides. "Learn
// more" opens the documentation and re-prompts without consuming the
// decision. Declining returns a cancellation error, never a plain failure.
func (g *Gate) Confirm(ctx context.Context, summary Summary) (Decision, error) {
	fmt.Fprintln(g.out, Render(summary))

	message := fmt.Sprintf("Provision cloud resources for environment %q?", summary.EnvName)
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		choice, err := g.prompt.Select(message, []string{actionProvision, actionLearnMore, actionCancel}, actionProvision)
		if err != nil {
			return "", err
		}

		switch choice {
		case actionProvision:
			return DecisionProceed, nil
		case actionLearnMore:
			if err := g.prompt.OpenURL(DocsURL); err != nil {
				return "", err
			}
		default:
			return "", apperrors.NewUserCancelledError("provision")
		}
	}
}
